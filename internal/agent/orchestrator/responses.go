package orchestrator

// Canned Vietnamese replies for turns that cannot reach the response
// model. Every one of them still completes the turn and lands in history.
const (
	clarificationResponse = "Xin lỗi, tôi chưa hiểu rõ câu hỏi của bạn. " +
		"Bạn có thể hỏi về thời tiết (ví dụ: \"thời tiết ở Đà Lạt hôm nay\") " +
		"hoặc kỹ thuật canh tác (ví dụ: \"cách bón phân cho cà phê\")."

	needLocationResponse = "Bạn muốn xem thời tiết ở khu vực nào? " +
		"Vui lòng cho tôi biết tên địa phương, ví dụ: Đà Lạt, Buôn Ma Thuột hoặc Pleiku."

	locationUnknownResponse = "Xin lỗi, tôi không tìm thấy dữ liệu thời tiết cho địa điểm này. " +
		"Bạn kiểm tra lại tên địa phương giúp tôi nhé."

	weatherUnavailableResponse = "Xin lỗi, hiện tại tôi không lấy được dữ liệu thời tiết. " +
		"Bạn thử lại sau ít phút nhé."

	knowledgeUnavailableResponse = "Xin lỗi, kho tài liệu kỹ thuật đang tạm thời gián đoạn. " +
		"Bạn thử lại sau ít phút nhé."

	allSourcesFailedResponse = "Xin lỗi, cả dữ liệu thời tiết lẫn tài liệu kỹ thuật đều đang gián đoạn " +
		"nên tôi chưa thể trả lời chính xác. Bạn thử lại sau ít phút nhé."

	composerFailedResponse = "Xin lỗi, tôi gặp trục trặc khi soạn câu trả lời. " +
		"Bạn hỏi lại giúp tôi nhé."

	emptyInputResponse = "Bạn chưa nhập câu hỏi. Hãy hỏi tôi về thời tiết hoặc kỹ thuật canh tác nhé."
)
