package clinic

import (
	"fmt"
	"strconv"
	"strings"
)

// PartnerClinic is a clinic WellBot may recommend and accept bookings for.
type PartnerClinic struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Specialty string  `json:"specialty"`
	Rating    float64 `json:"rating"`
	OpenHours string  `json:"openHours"`
}

// Directory is the read-only set of partner clinics, in display order.
type Directory struct {
	clinics []PartnerClinic
	byID    map[int64]PartnerClinic
}

// NewDirectory builds a directory from clinics. Duplicate ids keep the first entry.
func NewDirectory(clinics []PartnerClinic) *Directory {
	d := &Directory{byID: make(map[int64]PartnerClinic, len(clinics))}
	for _, c := range clinics {
		if _, dup := d.byID[c.ID]; dup {
			continue
		}
		d.clinics = append(d.clinics, c)
		d.byID[c.ID] = c
	}
	return d
}

// DefaultDirectory returns the partner clinics WellBot ships with.
func DefaultDirectory() *Directory {
	return NewDirectory(DefaultPartnerClinics())
}

// DefaultPartnerClinics lists the Hanoi partner clinics.
func DefaultPartnerClinics() []PartnerClinic {
	return []PartnerClinic{
		{
			ID:        1,
			Name:      "Phòng khám Tâm lý Việt Pháp Hà Nội",
			Address:   "45 Tràng Thi, Quận Hoàn Kiếm, Hà Nội",
			Phone:     "024 3826 1234",
			Specialty: "Tâm lý trị liệu, Tư vấn cặp đôi, Trầm cảm",
			Rating:    4.8,
			OpenHours: "8:00 - 20:00 (T2-T7)",
		},
		{
			ID:        2,
			Name:      "Viện Sức khỏe Tâm thần Quốc gia",
			Address:   "78 Giải Phóng, Quận Đống Đa, Hà Nội",
			Phone:     "024 3576 2345",
			Specialty: "Rối loạn lo âu, Trầm cảm, Stress",
			Rating:    4.7,
			OpenHours: "7:30 - 17:00 (T2-T6)",
		},
		{
			ID:        3,
			Name:      "Trung tâm Tâm lý 1088",
			Address:   "Số 5 Trần Quốc Toản, Quận Hoàn Kiếm, Hà Nội",
			Phone:     "024 7304 1088",
			Specialty: "Tâm lý trẻ em, Tâm lý học đường, ADHD",
			Rating:    4.9,
			OpenHours: "8:00 - 20:00 (T2-CN)",
		},
		{
			ID:        4,
			Name:      "Bệnh viện Bạch Mai - Viện Sức khỏe Tâm thần",
			Address:   "78 Giải Phóng, Quận Đống Đa, Hà Nội",
			Phone:     "024 3869 3731",
			Specialty: "Tâm thần học, Rối loạn giấc ngủ, Nghiện",
			Rating:    4.6,
			OpenHours: "7:00 - 16:30 (T2-T6)",
		},
		{
			ID:        5,
			Name:      "Phòng khám Tâm lý MindCare Hà Nội",
			Address:   "120 Kim Mã, Quận Ba Đình, Hà Nội",
			Phone:     "024 7300 5678",
			Specialty: "Stress công việc, Burn-out, Tư vấn gia đình",
			Rating:    4.8,
			OpenHours: "9:00 - 21:00 (T2-CN)",
		},
	}
}

// Lookup returns the clinic with id.
func (d *Directory) Lookup(id int64) (PartnerClinic, bool) {
	c, ok := d.byID[id]
	return c, ok
}

// All returns a copy of the clinics in display order.
func (d *Directory) All() []PartnerClinic {
	out := make([]PartnerClinic, len(d.clinics))
	copy(out, d.clinics)
	return out
}

// PromptList renders one "n. name (specialty) - address" line per clinic.
func (d *Directory) PromptList() string {
	lines := make([]string, 0, len(d.clinics))
	for i, c := range d.clinics {
		lines = append(lines, fmt.Sprintf("%d. %s (%s) - %s", i+1, c.Name, c.Specialty, c.Address))
	}
	return strings.Join(lines, "\n")
}

// RecommendationBlock renders the directory as the markdown block appended to
// chat replies when the user asks about seeing a professional.
func (d *Directory) RecommendationBlock() string {
	var b strings.Builder
	b.WriteString("\n\n🏥 **DANH SÁCH PHÒNG KHÁM LIÊN KẾT:**\n\n")
	for i, c := range d.clinics {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, c.Name)
		fmt.Fprintf(&b, "   📍 Địa chỉ: %s\n", c.Address)
		fmt.Fprintf(&b, "   📞 Điện thoại: %s\n", c.Phone)
		fmt.Fprintf(&b, "   🩺 Chuyên khoa: %s\n", c.Specialty)
		fmt.Fprintf(&b, "   ⭐ Đánh giá: %s/5\n", strconv.FormatFloat(c.Rating, 'f', -1, 64))
		fmt.Fprintf(&b, "   🕐 Giờ làm việc: %s\n\n", c.OpenHours)
	}
	b.WriteString("💡 *Bạn có thể liên hệ trực tiếp với phòng khám hoặc sử dụng tính năng Đặt lịch trong ứng dụng để đặt hẹn nhanh chóng!*")
	return b.String()
}
