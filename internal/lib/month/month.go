// Package month содержит вспомогательные функции для работы с датами
// биллинговых периодов. Все даты усечены до дня в UTC: биллинг оперирует
// календарными днями, а не моментами времени.
package month

import "time"

// Day усекает момент времени до календарного дня в UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today возвращает текущий календарный день в UTC.
func Today() time.Time {
	return Day(time.Now())
}

// End возвращает дату окончания периода, начавшегося в start:
// ровно один календарный месяц спустя. Перенос на последний день месяца
// наследуется от time.AddDate (31 января + месяц = 2/3 марта).
func End(start time.Time) time.Time {
	return start.AddDate(0, 1, 0)
}

// Contains сообщает, попадает ли день d в отрезок [start, end] включительно.
func Contains(start, end, d time.Time) bool {
	return !d.Before(start) && !d.After(end)
}
