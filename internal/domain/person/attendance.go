package person

import (
	"fmt"
	"strings"
	"time"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceStatus определяет статус посещения за конкретный день.
type AttendanceStatus string

const (
	// AttendancePresent - контакт присутствовал.
	AttendancePresent AttendanceStatus = "present"
	// AttendanceAbsent - контакт отсутствовал.
	AttendanceAbsent AttendanceStatus = "absent"
	// AttendanceLate - контакт опоздал.
	AttendanceLate AttendanceStatus = "late"
	// AttendanceExcused - отсутствие по уважительной причине.
	AttendanceExcused AttendanceStatus = "excused"
)

// IsValid проверяет, что статус корректен.
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// CountsAsMissed возвращает true, если статус означает пропуск занятия.
func (s AttendanceStatus) CountsAsMissed() bool {
	return s == AttendanceAbsent
}

// Attendance - одна запись посещаемости: дата (с точностью до дня),
// статус и необязательная пометка. Значение неизменяемо.
type Attendance struct {
	date   time.Time
	status AttendanceStatus
	remark string
}

// NewAttendance создаёт запись посещаемости с валидацией.
// Дата усекается до начала дня в UTC.
func NewAttendance(date time.Time, status AttendanceStatus, remark string) (Attendance, error) {
	if date.IsZero() {
		return Attendance{}, shared.NewDomainError("person", "NewAttendance", shared.ErrNilArgument, "date is required")
	}
	if !status.IsValid() {
		return Attendance{}, shared.ErrInvalidAttendance
	}

	day := date.UTC().Truncate(24 * time.Hour)
	return Attendance{
		date:   day,
		status: status,
		remark: strings.TrimSpace(remark),
	}, nil
}

// Date возвращает дату записи (начало дня, UTC).
func (a Attendance) Date() time.Time {
	return a.date
}

// Status возвращает статус посещения.
func (a Attendance) Status() AttendanceStatus {
	return a.status
}

// Remark возвращает пометку.
func (a Attendance) Remark() string {
	return a.remark
}

// IsZero возвращает true для незаполненной записи.
func (a Attendance) IsZero() bool {
	return a.date.IsZero()
}

// Equal сравнивает записи по значению.
func (a Attendance) Equal(other Attendance) bool {
	return a.date.Equal(other.date) && a.status == other.status && a.remark == other.remark
}

// String возвращает представление вида "2026-02-03 absent (sick)".
func (a Attendance) String() string {
	s := fmt.Sprintf("%s %s", a.date.Format("2006-01-02"), a.status)
	if a.remark != "" {
		s += " (" + a.remark + ")"
	}
	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE LIST
// ══════════════════════════════════════════════════════════════════════════════

// AttendanceList - упорядоченный неизменяемый список записей посещаемости.
// Порядок добавления сохраняется; Marking возвращает новый список.
type AttendanceList struct {
	records []Attendance
}

// NewAttendanceList создаёт список из копии входа.
func NewAttendanceList(records ...Attendance) AttendanceList {
	if len(records) == 0 {
		return AttendanceList{}
	}
	out := make([]Attendance, len(records))
	copy(out, records)
	return AttendanceList{records: out}
}

// Len возвращает количество записей.
func (l AttendanceList) Len() int {
	return len(l.records)
}

// IsEmpty возвращает true, если записей нет.
func (l AttendanceList) IsEmpty() bool {
	return len(l.records) == 0
}

// Slice возвращает копию записей в порядке добавления.
func (l AttendanceList) Slice() []Attendance {
	out := make([]Attendance, len(l.records))
	copy(out, l.records)
	return out
}

// Marking возвращает новый список с добавленной записью. Если запись за
// этот день уже есть, она заменяется новой на той же позиции: на каждый
// день в списке не больше одной записи.
func (l AttendanceList) Marking(record Attendance) AttendanceList {
	for i, r := range l.records {
		if r.date.Equal(record.date) {
			out := make([]Attendance, len(l.records))
			copy(out, l.records)
			out[i] = record
			return AttendanceList{records: out}
		}
	}
	out := make([]Attendance, len(l.records)+1)
	copy(out, l.records)
	out[len(l.records)] = record
	return AttendanceList{records: out}
}

// CountByStatus возвращает количество записей с указанным статусом.
func (l AttendanceList) CountByStatus(status AttendanceStatus) int {
	count := 0
	for _, r := range l.records {
		if r.status == status {
			count++
		}
	}
	return count
}

// AttendanceRate возвращает долю посещённых занятий (present и late) от всех
// записей. Для пустого списка - 1.
func (l AttendanceList) AttendanceRate() float64 {
	if len(l.records) == 0 {
		return 1
	}
	attended := 0
	for _, r := range l.records {
		if !r.status.CountsAsMissed() && r.status != AttendanceExcused {
			attended++
		}
	}
	return float64(attended) / float64(len(l.records))
}

// ConsecutiveAbsences возвращает длину серии пропусков, считая от последней
// записи назад. Записи excused серию не прерывают и не удлиняют.
func (l AttendanceList) ConsecutiveAbsences() int {
	streak := 0
	for i := len(l.records) - 1; i >= 0; i-- {
		switch l.records[i].status {
		case AttendanceAbsent:
			streak++
		case AttendanceExcused:
			continue
		default:
			return streak
		}
	}
	return streak
}

// Equal сравнивает списки по содержимому и порядку.
func (l AttendanceList) Equal(other AttendanceList) bool {
	if len(l.records) != len(other.records) {
		return false
	}
	for i := range l.records {
		if !l.records[i].Equal(other.records[i]) {
			return false
		}
	}
	return true
}

// String возвращает представление вида "[2026-02-03 present, 2026-02-04 absent]".
func (l AttendanceList) String() string {
	parts := make([]string, len(l.records))
	for i, r := range l.records {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
