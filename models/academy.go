package models

// Entities owned by the upstream academy API. The gateway holds only
// request-scoped copies of these; nothing here is persisted locally.

// PaymentStatus is the reviewed state of a payment. The upstream wire format
// is a two-valued flag (0 = pending, 1 = accepted) that cannot represent an
// explicit rejection; the gateway keeps the three-valued state and maps down
// when talking upstream.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentAccepted PaymentStatus = "accepted"
	PaymentRejected PaymentStatus = "rejected"
)

// WireStatus collapses the status to the upstream flag.
func (s PaymentStatus) WireStatus() int {
	if s == PaymentAccepted {
		return 1
	}
	return 0
}

// PaymentStatusFromWire maps the upstream flag back. Rejected payments are
// indistinguishable from pending on the wire; the local review log is the
// source of truth for those.
func PaymentStatusFromWire(v int) PaymentStatus {
	if v == 1 {
		return PaymentAccepted
	}
	return PaymentPending
}

type Course struct {
	ID             uint    `json:"co_id"`
	Name           string  `json:"co_name"`
	Description    string  `json:"description"`
	Duration       string  `json:"duration"`
	PriceUSD       float64 `json:"price"`
	PriceSAR       float64 `json:"price_s"`
	Rank           int     `json:"rank"`
	CurriculumLink string  `json:"curriculum"`
	SpecID         uint    `json:"spec_id"`
	CreatedAt      string  `json:"created_at"`
}

// PriceFor returns the authoritative price for a currency toggle.
// Exactly one of the two parallel price fields applies per submission.
func (c Course) PriceFor(currency string) float64 {
	if currency == "SAR" {
		return c.PriceSAR
	}
	return c.PriceUSD
}

type Teacher struct {
	ID             uint   `json:"te_id"`
	Name           string `json:"te_name"`
	Nationality    string `json:"nationality"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	CreatedAt      string `json:"created_at"`
}

type StudentRecord struct {
	ID          uint   `json:"stu_id"`
	Name        string `json:"stu_name"`
	Nationality string `json:"nationality"`
	Phone       string `json:"phone"`
	Phone2      string `json:"phone2"`
	Gender      bool   `json:"gender"`
	Birthdate   string `json:"birthdate"`
	Email       string `json:"email"`
	CreatedAt   string `json:"created_at"`
}

type Specialization struct {
	ID   uint   `json:"spec_id"`
	Name string `json:"spec_name"`
}

// Assignment binds one teacher to one course for a concrete time window.
// Its lifecycle state (planned/running/finished) is derived from the window,
// never stored; see catalog.Classify.
type Assignment struct {
	ID          uint   `json:"ass_id"`
	TeacherID   uint   `json:"te_id"`
	CourseID    uint   `json:"co_id"`
	TeacherName string `json:"te_name"`
	CourseName  string `json:"co_name"`
	StartTime   string `json:"start_time"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	CreatedAt   string `json:"created_at"`
}

type Enrollment struct {
	ID         uint   `json:"en_id"`
	Email      string `json:"email"`
	CourseID   uint   `json:"co_id"`
	CourseName string `json:"co_name"`
	WantedTime string `json:"wanted_time"`
	Date       string `json:"en_date"`
	PaymentID  uint   `json:"pay_id"`
	CreatedAt  string `json:"created_at"`
}

type Payment struct {
	ID             uint    `json:"pay_id"`
	Email          string  `json:"email"`
	CourseID       uint    `json:"co_id"`
	CourseName     string  `json:"co_name"`
	Method         string  `json:"method"`
	AccountNumber  string  `json:"account_number"`
	TransactionNum string  `json:"transaction_number"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	WantedTime     string  `json:"wanted_time"`
	Status         int     `json:"status"`
	ReceiptKey     string  `json:"receipt_key,omitempty"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// CourseStudent is the join record produced by roster distribution. It
// carries denormalized snapshot fields taken at assignment time; nothing
// keeps the snapshot in sync with later teacher/course renames.
type CourseStudent struct {
	ID           uint   `json:"cs_id"`
	AssignmentID uint   `json:"ass_id"`
	EnrollmentID uint   `json:"en_id"`
	StudentName  string `json:"stu_name"`
	Email        string `json:"email"`
	CourseName   string `json:"co_name"`
	TeacherName  string `json:"te_name"`
	WantedTime   string `json:"wanted_time"`
	StartTime    string `json:"start_time"`
}

type Exam struct {
	ID           uint   `json:"ex_id"`
	AssignmentID uint   `json:"ass_id"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Link         string `json:"link"`
}

// CourseDetail is one curriculum/outline row shown on a course page.
type CourseDetail struct {
	ID       uint   `json:"cd_id"`
	CourseID uint   `json:"co_id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Rank     int    `json:"rank"`
}

type Lesson struct {
	ID           uint   `json:"le_id"`
	AssignmentID uint   `json:"ass_id"`
	CourseName   string `json:"co_name"`
	Title        string `json:"title"`
	Link         string `json:"link"`
	CreatedAt    string `json:"created_at"`
}

type Grade struct {
	ID           uint    `json:"gr_id"`
	AssignmentID uint    `json:"ass_id"`
	Email        string  `json:"email"`
	Exam         string  `json:"exam"`
	Score        float64 `json:"score"`
}

type AttendanceRecord struct {
	ID           uint   `json:"att_id"`
	AssignmentID uint   `json:"ass_id"`
	Email        string `json:"email"`
	Date         string `json:"date"`
	Present      bool   `json:"present"`
}

type PaymentMethod struct {
	ID      uint   `json:"me_id"`
	Name    string `json:"method"`
	Details string `json:"details"`
}
