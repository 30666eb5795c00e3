// Package person содержит доменную модель контакта ростера Rollbook.
//
// Это ядро бизнес-логики системы. Пакет определяет:
//
//   - Сущности: Person (неизменяемый контакт), Record (запись ростера)
//   - Value Objects: Name, Phone, Email, Address, Tag, TagSet, Grade, Attendance, Index
//   - Коллекции: GradeList, AttendanceList (персистентные, с операциями-деривациями)
//   - Доменные события: PersonAdded, GradeAdded, AttendanceMarked и др.
//   - Интерфейсы репозиториев: Repository, Cache
//
// # Архитектурные принципы
//
// Пакет следует принципам Clean Architecture и DDD:
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - определяет интерфейсы, которые реализуются в infrastructure
//  3. Неизменяемость - Person никогда не мутирует; "изменение" порождает
//     новый экземпляр, разделяющий незатронутые поля со старым
//
// # Равенство
//
// У контакта два понятия равенства:
//
//   - SamePerson - слабое: совпадает только имя. Используется для проверки
//     дубликатов в ростере.
//   - Equal - сильное: совпадают все семь полей. Согласовано с Hash:
//     равные контакты дают одинаковый хеш.
//
// # Пример
//
//	name, _ := NewName("Alex Yeoh")
//	phone, _ := NewPhone("91234567")
//	email, _ := NewEmail("alex@example.com")
//	addr, _ := NewAddress("123, Clementi Rd, #04-01")
//	tag, _ := NewTag("friend")
//
//	p, err := NewPerson(name, phone, email, addr, NewTagSet(tag), GradeList{}, AttendanceList{})
//
//	grade, _ := NewGrade("Math Quiz", 87.5)
//	updated, err := p.AddGrade(grade) // p не изменился
package person
