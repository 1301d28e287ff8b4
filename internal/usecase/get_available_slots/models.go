package get_available_slots

import "time"

// Settings параметры отображения доступности
type Settings struct {
	SlotDurationMinutes int
	VisitorZone         string // IANA зона посетителя
	VisitorZoneLabel    string // подпись зоны, например "Pacific Time"
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Slots               []Slot      // Слоты, доступные для записи, по возрастанию времени
	ActiveTerm          *ActiveTerm // Период, содержащий текущий момент (nil, если такого нет)
	SlotDurationMinutes int
	VisitorZoneLabel    string
}

// Slot модель временного слота
type Slot struct {
	ID        int64
	Time      time.Time
	EndsAt    time.Time
	DateLabel string // Дата в зоне посетителя ("Jun 10, 2024")
	TimeLabel string // Время в зоне посетителя ("11:00 AM")
}

// ActiveTerm текущий период записи и остаток мест в нем
type ActiveTerm struct {
	ID        int64
	Name      string
	Start     time.Time
	End       time.Time
	Slots     int
	Booked    int
	Remaining int
}
