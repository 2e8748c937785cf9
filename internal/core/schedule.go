package core

// Record is one class schedule entry as stored in the blob.
type Record struct {
	ID        string `json:"id"`
	Class     string `json:"class"`
	Day       string `json:"day"`
	Subject   string `json:"subject"`
	Teacher   string `json:"teacher"`
	StartTime string `json:"startTime"` // HH:MM, 24h
	EndTime   string `json:"endTime"`   // HH:MM, 24h, after StartTime
}

// Fields are the caller-controlled parts of a Record.
type Fields struct {
	Class     string
	Day       string
	Subject   string
	Teacher   string
	StartTime string
	EndTime   string
}

// Fields returns r without its identifier.
func (r Record) Fields() Fields {
	return Fields{
		Class:     r.Class,
		Day:       r.Day,
		Subject:   r.Subject,
		Teacher:   r.Teacher,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
	}
}

func (f Fields) record(id string) Record {
	return Record{
		ID:        id,
		Class:     f.Class,
		Day:       f.Day,
		Subject:   f.Subject,
		Teacher:   f.Teacher,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
	}
}

// Input is a mutation request: either CreateInput or UpdateInput.
type Input interface {
	input()
}

// CreateInput asks for a new record; the identifier is assigned on write.
type CreateInput struct {
	Fields
}

// UpdateInput replaces the record with ID wholesale.
type UpdateInput struct {
	ID string
	Fields
}

func (CreateInput) input() {}
func (UpdateInput) input() {}

// ValidClasses lists the accepted class-section labels, in display order.
var ValidClasses = []string{"X A", "X B", "XI A", "XI B", "XII A", "XII B"}

// ValidDays lists the school days, Monday first.
var ValidDays = []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// DayIndex returns the position of day in ValidDays, or -1.
func DayIndex(day string) int {
	for i, d := range ValidDays {
		if d == day {
			return i
		}
	}
	return -1
}

func isValidClass(class string) bool {
	for _, c := range ValidClasses {
		if c == class {
			return true
		}
	}
	return false
}
