package person

import (
	"time"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// События описывают свершившиеся факты ростера и публикуются после
// успешной записи в хранилище.
// ══════════════════════════════════════════════════════════════════════════════

// PersonAddedEvent - в ростер добавлен новый контакт.
type PersonAddedEvent struct {
	shared.BaseEvent
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// NewPersonAddedEvent создаёт событие добавления контакта.
func NewPersonAddedEvent(recordID string, p *Person) PersonAddedEvent {
	return PersonAddedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventPersonAdded, recordID),
		Name:      p.Name().String(),
		Phone:     p.Phone().String(),
		Email:     p.Email().String(),
	}
}

// Payload implements shared.Event.
func (e PersonAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":  e.Name,
		"phone": e.Phone,
		"email": e.Email,
	}
}

// PersonReplacedEvent - контакт в записи заменён новой версией.
type PersonReplacedEvent struct {
	shared.BaseEvent
	Name string `json:"name"`
}

// NewPersonReplacedEvent создаёт событие замены контакта.
func NewPersonReplacedEvent(recordID string, p *Person) PersonReplacedEvent {
	return PersonReplacedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventPersonReplaced, recordID),
		Name:      p.Name().String(),
	}
}

// Payload implements shared.Event.
func (e PersonReplacedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"name": e.Name}
}

// PersonDeletedEvent - запись удалена из ростера.
type PersonDeletedEvent struct {
	shared.BaseEvent
	Name string `json:"name"`
}

// NewPersonDeletedEvent создаёт событие удаления записи.
func NewPersonDeletedEvent(recordID string, name Name) PersonDeletedEvent {
	return PersonDeletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventPersonDeleted, recordID),
		Name:      name.String(),
	}
}

// Payload implements shared.Event.
func (e PersonDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"name": e.Name}
}

// GradeAddedEvent - контакту добавлена оценка.
type GradeAddedEvent struct {
	shared.BaseEvent
	TestName string  `json:"test_name"`
	Score    float64 `json:"score"`
	Total    int     `json:"total"`
}

// NewGradeAddedEvent создаёт событие добавления оценки.
func NewGradeAddedEvent(recordID string, grade Grade, total int) GradeAddedEvent {
	return GradeAddedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventGradeAdded, recordID),
		TestName:  grade.TestName(),
		Score:     grade.Score(),
		Total:     total,
	}
}

// Payload implements shared.Event.
func (e GradeAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"test_name": e.TestName,
		"score":     e.Score,
		"total":     e.Total,
	}
}

// GradeRemovedEvent - у контакта удалена оценка.
type GradeRemovedEvent struct {
	shared.BaseEvent
	TestName string `json:"test_name"`
	Position int    `json:"position"` // единица-базированная позиция
}

// NewGradeRemovedEvent создаёт событие удаления оценки.
func NewGradeRemovedEvent(recordID string, removed Grade, index Index) GradeRemovedEvent {
	return GradeRemovedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventGradeRemoved, recordID),
		TestName:  removed.TestName(),
		Position:  index.OneBased(),
	}
}

// Payload implements shared.Event.
func (e GradeRemovedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"test_name": e.TestName,
		"position":  e.Position,
	}
}

// AttendanceMarkedEvent - контакту отмечена посещаемость.
type AttendanceMarkedEvent struct {
	shared.BaseEvent
	Date   time.Time `json:"date"`
	Status string    `json:"status"`
}

// NewAttendanceMarkedEvent создаёт событие отметки посещаемости.
func NewAttendanceMarkedEvent(recordID string, record Attendance) AttendanceMarkedEvent {
	return AttendanceMarkedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventAttendanceMarked, recordID),
		Date:      record.Date(),
		Status:    string(record.Status()),
	}
}

// Payload implements shared.Event.
func (e AttendanceMarkedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date":   e.Date.Format("2006-01-02"),
		"status": e.Status,
	}
}

// AbsenceDetectedEvent - фоновый детектор нашёл серию пропусков.
type AbsenceDetectedEvent struct {
	shared.BaseEvent
	Name   string `json:"name"`
	Streak int    `json:"streak"`
}

// NewAbsenceDetectedEvent создаёт событие серии пропусков.
func NewAbsenceDetectedEvent(recordID string, name Name, streak int) AbsenceDetectedEvent {
	return AbsenceDetectedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventAbsenceDetected, recordID),
		Name:      name.String(),
		Streak:    streak,
	}
}

// Payload implements shared.Event.
func (e AbsenceDetectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":   e.Name,
		"streak": e.Streak,
	}
}
