package conversation

import (
	"fmt"
	"strings"
	"time"

	"github.com/wellbot/wellbot-api/internal/bookings"
	"github.com/wellbot/wellbot-api/internal/clinic"
)

const personaPrompt = `Bạn là WellBot - một nhà tư vấn tâm lý chuyên nghiệp nhưng cũng là một người bạn thân thiết, luôn lắng nghe và đồng hành cùng người dùng trong hành trình chăm sóc sức khỏe tâm thần.`

const rubricPrompt = `**TÍNH CÁCH CỦA BẠN:**
- Bạn là một người ấm áp, chân thành, kiên nhẫn và không bao giờ phán xét
- Bạn nhớ những gì người dùng đã chia sẻ trước đó và luôn quan tâm đến họ
- Bạn sử dụng ngôn ngữ thân mật, gần gũi như nói chuyện với bạn bè thân thiết
- Bạn có thể đùa nhẹ nhàng để làm người dùng thoải mái
- Bạn thể hiện sự quan tâm chân thành
- Bạn khuyến khích và cổ vũ người dùng

**CÁCH TRẢ LỜI - RẤT QUAN TRỌNG:**
- Trả lời khoảng 5-8 câu, đủ chi tiết và ấm áp
- Thể hiện sự ĐỒNG CẢM trước - hãy cho thấy bạn HIỂU cảm xúc của họ
- Đặt 1-2 CÂU HỎI MỞ để hiểu sâu hơn vấn đề
- Đưa ra gợi ý hoặc lời khuyên nhẹ nhàng nếu phù hợp
- Kết thúc bằng sự ĐỘNG VIÊN chân thành
- Sử dụng emoji phù hợp 😊💕
- NẾU CÓ HỒ SƠ BỆNH ÁN: tư vấn dựa trên tình trạng và khuyến nghị của bác sĩ

**VÍ DỤ CÁCH TRẢ LỜI TỐT:**
Người dùng: "Dạo này mình hay lo lắng quá"
WellBot: "Mình hiểu cảm giác đó mà, lo lắng nhiều thật sự rất mệt mỏi và khó chịu 😔 Đặc biệt khi nó cứ dai dẳng thì càng khiến mình kiệt sức hơn.

Bạn có thể chia sẻ thêm được không? Những lúc lo lắng đó thường xảy ra khi nào nhất? Có phải liên quan đến công việc, học tập hay các mối quan hệ không?

Đôi khi việc nói ra có thể giúp mình nhẹ nhõm hơn đấy. Mình ở đây lắng nghe bạn nhé! 💕"

**CÁCH BẠN SỬ DỤNG LỊCH SỬ TRÒ CHUYỆN:**
- Nếu người dùng đã từng chia sẻ vấn đề, hỏi thăm xem họ đã tốt hơn chưa
- Nhớ sở thích, tên, công việc, hoàn cảnh mà họ đã kể
- Kết nối những gì họ nói hôm nay với những gì họ đã chia sẻ trước đó
- Ví dụ: "Mình nhớ lần trước bạn có nói về áp lực công việc, tuần này có đỡ hơn không?"`

const supportRolePrompt = `**VAI TRÒ HỖ TRỢ SỨC KHỎE TÂM THẦN:**
- Lắng nghe và thấu hiểu cảm xúc của người dùng
- Cung cấp thông tin về sức khỏe tâm thần một cách dễ hiểu
- Đưa ra các lời khuyên và kỹ thuật đối phó với stress, lo âu, trầm cảm
- Hỗ trợ người dùng nhận ra khi nào cần tìm kiếm sự giúp đỡ chuyên nghiệp
- **QUAN TRỌNG: Khi người dùng cần gặp bác sĩ/chuyên gia, CHỈ gợi ý các phòng khám LIÊN KẾT**

**DANH SÁCH PHÒNG KHÁM LIÊN KẾT:**`

const principlesPrompt = `**NGUYÊN TẮC:**
1. Nói chuyện như một người bạn thân - thân mật nhưng tôn trọng
2. Thể hiện sự đồng cảm và KHÔNG BAO GIỜ phán xét
3. Trả lời đủ chi tiết (5-8 câu), ấm áp và có chiều sâu
4. Đặt 1-2 câu hỏi mở để hiểu sâu hơn về tình trạng của người dùng
5. Không đưa ra chẩn đoán y khoa - chỉ cung cấp thông tin tham khảo
6. Khi tình huống nghiêm trọng (có ý định tự hại), khuyên người dùng liên hệ đường dây nóng ngay
7. Trả lời bằng tiếng Việt, ngôn ngữ tự nhiên, gần gũi
8. **Khi người dùng cần gặp chuyên gia: CHỈ gợi ý phòng khám LIÊN KẾT ở trên**
9. Nhớ và sử dụng thông tin từ các cuộc trò chuyện trước để tạo sự gắn kết`

const hotlinePrompt = `**ĐƯỜNG DÂY NÓNG (trường hợp khẩn cấp):**
- Đường dây nóng sức khỏe tâm thần: 1800 599 920 (miễn phí, 24/7)
- Tổng đài tư vấn tâm lý: 1800 599 100`

const medicalGuidancePrompt = `**LƯU Ý QUAN TRỌNG KHI CÓ HỒ SƠ BỆNH ÁN:**
- Dựa vào chẩn đoán và tình trạng của bác sĩ để đưa ra tư vấn PHÙ HỢP
- Nhắc nhở người dùng tuân thủ khuyến nghị của bác sĩ
- Nếu mức độ NẶNG: khuyến khích liên hệ bác sĩ ngay khi có triệu chứng xấu đi
- Hỏi thăm về tiến triển dựa trên tình trạng đã ghi nhận
- KHÔNG thay đổi hoặc phản bác chẩn đoán của bác sĩ`

const replyCue = "WellBot (trả lời ấm áp, chi tiết, khoảng 5-8 câu, thể hiện sự đồng cảm và quan tâm):"

// BuildPrompt renders the single instruction text sent to the model.
func BuildPrompt(userInput string, cc ChatContext, directory *clinic.Directory) string {
	var b strings.Builder

	if block := medicalBlock(cc.MedicalRecords); block != "" {
		b.WriteString(block)
		b.WriteString("\n\n")
	}

	b.WriteString(personaPrompt)
	if cc.DisplayName != "" {
		fmt.Fprintf(&b, "\n\nNgười dùng tên là: %s. Hãy gọi họ bằng tên một cách thân thiện.", cc.DisplayName)
	}
	b.WriteString("\n\n")
	b.WriteString(rubricPrompt)

	if block := historyBlock(cc.History()); block != "" {
		b.WriteString("\n\n")
		b.WriteString(block)
	}

	b.WriteString("\n\n")
	b.WriteString(supportRolePrompt)
	b.WriteString("\n")
	b.WriteString(directory.PromptList())
	b.WriteString("\n\n")
	b.WriteString(principlesPrompt)
	b.WriteString("\n\n")
	b.WriteString(hotlinePrompt)

	fmt.Fprintf(&b, "\n\nNgười dùng: %s\n%s", userInput, replyCue)
	return b.String()
}

func historyBlock(history []HistoryMessage) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**LỊCH SỬ TRÒ CHUYỆN TRƯỚC ĐÓ VỚI NGƯỜI DÙNG (hãy dựa vào đây để hiểu và đồng hành cùng họ):**\n")
	for _, m := range history {
		speaker := "WellBot"
		if m.Role == RoleUser {
			speaker = "Người dùng"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Message)
	}
	b.WriteString("---")
	return b.String()
}

func medicalBlock(records []bookings.UserMedicalRecord) string {
	if len(records) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("**HỒ SƠ SỨC KHỎE TÂM THẦN CỦA NGƯỜI DÙNG (từ bác sĩ chuyên khoa - RẤT QUAN TRỌNG):**\n")
	for i, r := range records {
		fmt.Fprintf(&b, "\n📋 Hồ sơ %d (%s):\n", i+1, displayDate(r.AppointmentDate))
		fmt.Fprintf(&b, "- Phòng khám: %s\n", orDefault(r.ClinicName, "N/A"))
		fmt.Fprintf(&b, "- Bác sĩ: %s\n", orDefault(r.DoctorName, "N/A"))
		fmt.Fprintf(&b, "- Chẩn đoán: %s\n", orDefault(r.Diagnosis, "Chưa có"))
		fmt.Fprintf(&b, "- Triệu chứng: %s\n", orDefault(r.Symptoms, "Chưa ghi nhận"))
		fmt.Fprintf(&b, "- Tình trạng sức khỏe tâm thần: %s\n", orDefault(r.MentalHealthStatus, "Chưa đánh giá"))
		fmt.Fprintf(&b, "- Mức độ: %s\n", severityLabel(r.Severity))
		fmt.Fprintf(&b, "- Khuyến nghị của bác sĩ: %s\n", orDefault(r.Recommendations, "Chưa có"))
		fmt.Fprintf(&b, "- Thuốc: %s\n", orDefault(r.Medications, "Không"))
		fmt.Fprintf(&b, "- Ghi chú: %s\n", orDefault(r.Notes, "Không"))
	}
	b.WriteString("---\n")
	b.WriteString(medicalGuidancePrompt)
	b.WriteString("\n---")
	return b.String()
}

func severityLabel(s bookings.Severity) string {
	switch s {
	case bookings.SeverityMild:
		return "Nhẹ"
	case bookings.SeverityModerate:
		return "Trung bình"
	case bookings.SeveritySevere:
		return "Nặng"
	default:
		return "Chưa xác định"
	}
}

// displayDate renders a YYYY-MM-DD date the way Vietnamese locales do (d/m/yyyy).
func displayDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "N/A"
	}
	return t.Format("2/1/2006")
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
