package person

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strings"

	"github.com/rollbook-hub/rollbook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Name представляет имя контакта. Используется как слабый идентификатор:
// два контакта с одинаковым именем считаются "тем же человеком".
type Name string

var nameRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ]*$`)

// IsValid проверяет формат имени: буквы, цифры и пробелы, не пустое.
func (n Name) IsValid() bool {
	return nameRegex.MatchString(string(n))
}

// String возвращает строковое представление имени.
func (n Name) String() string {
	return string(n)
}

// NewName создаёт имя с валидацией.
func NewName(s string) (Name, error) {
	n := Name(strings.TrimSpace(s))
	if n == "" {
		return "", shared.NewDomainError("person", "NewName", shared.ErrNilArgument, "name is required")
	}
	if !n.IsValid() {
		return "", shared.ErrInvalidName
	}
	return n, nil
}

// Phone представляет телефонный номер контакта.
type Phone string

var phoneRegex = regexp.MustCompile(`^\d{3,}$`)

// IsValid проверяет формат номера: только цифры, минимум 3.
func (p Phone) IsValid() bool {
	return phoneRegex.MatchString(string(p))
}

// String возвращает строковое представление номера.
func (p Phone) String() string {
	return string(p)
}

// NewPhone создаёт номер телефона с валидацией.
func NewPhone(s string) (Phone, error) {
	p := Phone(strings.TrimSpace(s))
	if p == "" {
		return "", shared.NewDomainError("person", "NewPhone", shared.ErrNilArgument, "phone is required")
	}
	if !p.IsValid() {
		return "", shared.ErrInvalidPhone
	}
	return p, nil
}

// Email представляет адрес электронной почты контакта.
type Email string

// Формат local-part@domain, нестрогая проверка.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// IsValid проверяет формат адреса.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// String возвращает строковое представление адреса.
func (e Email) String() string {
	return string(e)
}

// NewEmail создаёт адрес почты с валидацией.
func NewEmail(s string) (Email, error) {
	e := Email(strings.TrimSpace(s))
	if e == "" {
		return "", shared.NewDomainError("person", "NewEmail", shared.ErrNilArgument, "email is required")
	}
	if !e.IsValid() {
		return "", shared.ErrInvalidEmail
	}
	return e, nil
}

// Address представляет почтовый адрес контакта. Любая непустая строка.
type Address string

// IsValid проверяет, что адрес не пустой.
func (a Address) IsValid() bool {
	return strings.TrimSpace(string(a)) != ""
}

// String возвращает строковое представление адреса.
func (a Address) String() string {
	return string(a)
}

// NewAddress создаёт адрес с валидацией.
func NewAddress(s string) (Address, error) {
	a := Address(strings.TrimSpace(s))
	if a == "" {
		return "", shared.NewDomainError("person", "NewAddress", shared.ErrNilArgument, "address is required")
	}
	return a, nil
}

// Tag представляет метку контакта (например, "friend", "groupA").
type Tag string

var tagRegex = regexp.MustCompile(`^[\p{L}\p{N}]+$`)

// IsValid проверяет формат метки: одно слово из букв и цифр.
func (t Tag) IsValid() bool {
	return tagRegex.MatchString(string(t))
}

// String возвращает строковое представление метки.
func (t Tag) String() string {
	return string(t)
}

// NewTag создаёт метку с валидацией.
func NewTag(s string) (Tag, error) {
	t := Tag(strings.TrimSpace(s))
	if t == "" {
		return "", shared.NewDomainError("person", "NewTag", shared.ErrNilArgument, "tag is required")
	}
	if !t.IsValid() {
		return "", shared.ErrInvalidTag
	}
	return t, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TAG SET
// ══════════════════════════════════════════════════════════════════════════════

// TagSet - неизменяемое множество меток. Дубликаты схлопываются, порядок
// вставки не важен: внутри метки хранятся отсортированными, поэтому Equal
// и String детерминированы. Мутаторов нет - "изменение" выражается только
// операциями Adding/Removing, возвращающими новое множество.
type TagSet struct {
	tags []Tag // отсортированы, без дубликатов
}

// NewTagSet создаёт множество меток: копирует вход, убирает дубликаты.
func NewTagSet(tags ...Tag) TagSet {
	if len(tags) == 0 {
		return TagSet{}
	}

	seen := make(map[Tag]struct{}, len(tags))
	unique := make([]Tag, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		unique = append(unique, t)
	}

	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return TagSet{tags: unique}
}

// Len возвращает количество меток.
func (s TagSet) Len() int {
	return len(s.tags)
}

// IsEmpty возвращает true, если меток нет.
func (s TagSet) IsEmpty() bool {
	return len(s.tags) == 0
}

// Contains проверяет наличие метки.
func (s TagSet) Contains(t Tag) bool {
	for _, tag := range s.tags {
		if tag == t {
			return true
		}
	}
	return false
}

// Slice возвращает копию меток в отсортированном порядке.
// Изменение возвращённого слайса не затрагивает множество.
func (s TagSet) Slice() []Tag {
	out := make([]Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

// Adding возвращает новое множество с добавленной меткой.
func (s TagSet) Adding(t Tag) TagSet {
	if s.Contains(t) {
		return s
	}
	return NewTagSet(append(s.Slice(), t)...)
}

// Removing возвращает новое множество без указанной метки.
func (s TagSet) Removing(t Tag) TagSet {
	if !s.Contains(t) {
		return s
	}
	out := make([]Tag, 0, len(s.tags)-1)
	for _, tag := range s.tags {
		if tag != t {
			out = append(out, tag)
		}
	}
	return TagSet{tags: out}
}

// Equal сравнивает множества по содержимому.
func (s TagSet) Equal(other TagSet) bool {
	if len(s.tags) != len(other.tags) {
		return false
	}
	for i := range s.tags {
		if s.tags[i] != other.tags[i] {
			return false
		}
	}
	return true
}

// String возвращает строковое представление вида "[friend, groupA]".
func (s TagSet) String() string {
	parts := make([]string, len(s.tags))
	for i, t := range s.tags {
		parts[i] = string(t)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: PERSON
// ══════════════════════════════════════════════════════════════════════════════

// Person - неизменяемый контакт ростера. Все поля валидированы и присутствуют
// с момента создания; любое "изменение" порождает новый экземпляр, при этом
// незатронутые поля разделяются со старым. Благодаря неизменяемости экземпляр
// можно читать из любого числа горутин без синхронизации.
type Person struct {
	// Identity fields
	name  Name
	phone Phone
	email Email

	// Data fields
	address    Address
	tags       TagSet
	grades     GradeList
	attendance AttendanceList
}

// NewPerson создаёт контакт. Каждое обязательное поле проверяется на
// незаполненность (аналог null) и на формат; метки копируются внутрь.
func NewPerson(name Name, phone Phone, email Email, address Address, tags TagSet, grades GradeList, attendance AttendanceList) (*Person, error) {
	if name == "" {
		return nil, shared.NewDomainError("person", "New", shared.ErrNilArgument, "name is required")
	}
	if phone == "" {
		return nil, shared.NewDomainError("person", "New", shared.ErrNilArgument, "phone is required")
	}
	if email == "" {
		return nil, shared.NewDomainError("person", "New", shared.ErrNilArgument, "email is required")
	}
	if address == "" {
		return nil, shared.NewDomainError("person", "New", shared.ErrNilArgument, "address is required")
	}

	if !name.IsValid() {
		return nil, shared.ErrInvalidName
	}
	if !phone.IsValid() {
		return nil, shared.ErrInvalidPhone
	}
	if !email.IsValid() {
		return nil, shared.ErrInvalidEmail
	}
	for _, t := range tags.Slice() {
		if !t.IsValid() {
			return nil, shared.ErrInvalidTag
		}
	}

	return &Person{
		name:       name,
		phone:      phone,
		email:      email,
		address:    address,
		tags:       NewTagSet(tags.Slice()...), // защитная копия
		grades:     grades,
		attendance: attendance,
	}, nil
}

// Name возвращает имя контакта.
func (p *Person) Name() Name {
	return p.name
}

// Phone возвращает телефон контакта.
func (p *Person) Phone() Phone {
	return p.phone
}

// Email возвращает почту контакта.
func (p *Person) Email() Email {
	return p.email
}

// Address возвращает адрес контакта.
func (p *Person) Address() Address {
	return p.address
}

// Tags возвращает множество меток. TagSet не имеет мутаторов, поэтому
// изменить внутреннее состояние контакта через него нельзя.
func (p *Person) Tags() TagSet {
	return p.tags
}

// Grades возвращает список оценок.
func (p *Person) Grades() GradeList {
	return p.grades
}

// Attendance возвращает список посещаемости.
func (p *Person) Attendance() AttendanceList {
	return p.attendance
}

// AddGrade возвращает новый контакт с добавленной оценкой.
// Исходный контакт не меняется.
func (p *Person) AddGrade(grade Grade) (*Person, error) {
	if grade.IsZero() {
		return nil, shared.NewDomainError("person", "AddGrade", shared.ErrNilArgument, "grade is required")
	}

	updated := *p
	updated.grades = p.grades.Adding(grade)
	return &updated, nil
}

// RemoveGrade возвращает новый контакт без оценки на указанной позиции.
// Поведение при выходе за границы принадлежит списку оценок.
func (p *Person) RemoveGrade(index Index) (*Person, error) {
	if index.IsZero() {
		return nil, shared.NewDomainError("person", "RemoveGrade", shared.ErrNilArgument, "index is required")
	}

	grades, err := p.grades.Removing(index)
	if err != nil {
		return nil, err
	}

	updated := *p
	updated.grades = grades
	return &updated, nil
}

// MarkAttendance возвращает новый контакт с добавленной записью посещаемости.
func (p *Person) MarkAttendance(record Attendance) (*Person, error) {
	if record.IsZero() {
		return nil, shared.NewDomainError("person", "MarkAttendance", shared.ErrNilArgument, "attendance record is required")
	}

	updated := *p
	updated.attendance = p.attendance.Marking(record)
	return &updated, nil
}

// SamePerson проверяет слабое равенство: тот же указатель или то же имя.
// Используется для дедупликации в ростере; остальные поля не сравниваются.
func (p *Person) SamePerson(other *Person) bool {
	if other == p {
		return true
	}
	return other != nil && other.name == p.name
}

// Equal проверяет сильное равенство: все семь полей совпадают по значению.
func (p *Person) Equal(other *Person) bool {
	if other == p {
		return true
	}
	if other == nil {
		return false
	}
	return p.name == other.name &&
		p.phone == other.phone &&
		p.email == other.email &&
		p.address == other.address &&
		p.tags.Equal(other.tags) &&
		p.grades.Equal(other.grades) &&
		p.attendance.Equal(other.attendance)
}

// Hash возвращает хеш всех семи полей. Контакты, равные по Equal,
// всегда дают одинаковый хеш.
func (p *Person) Hash() uint64 {
	h := fnv.New64a()
	p.writeCanonical(h)
	return h.Sum64()
}

// writeCanonical пишет каноническое представление полей в произвольный writer.
// Разделитель не встречается в валидных значениях, поэтому кодирование однозначно.
func (p *Person) writeCanonical(w interface{ Write([]byte) (int, error) }) {
	sep := []byte{0x1f}
	w.Write([]byte(p.name))
	w.Write(sep)
	w.Write([]byte(p.phone))
	w.Write(sep)
	w.Write([]byte(p.email))
	w.Write(sep)
	w.Write([]byte(p.address))
	w.Write(sep)
	w.Write([]byte(p.tags.String()))
	w.Write(sep)
	w.Write([]byte(p.grades.String()))
	w.Write(sep)
	w.Write([]byte(p.attendance.String()))
}

// String возвращает структурированное представление всех семи полей
// в фиксированном порядке. Предназначено для логов и диагностики.
func (p *Person) String() string {
	return fmt.Sprintf(
		"Person{name: %s, phone: %s, email: %s, address: %s, tags: %s, grades: %s, attendance: %s}",
		p.name, p.phone, p.email, p.address, p.tags, p.grades, p.attendance,
	)
}
