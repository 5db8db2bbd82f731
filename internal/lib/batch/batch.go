// Package batch содержит разбиение списков идентификаторов на страницы
// фиксированного размера для пакетной обработки.
package batch

// Partition разбивает ids на страницы не более size элементов.
// Паникует при size <= 0. Возвращает nil для пустого списка.
func Partition[T any](ids []T, size int) [][]T {
	if size <= 0 {
		panic("batch: partition size must be positive")
	}
	if len(ids) == 0 {
		return nil
	}
	pages := make([][]T, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		pages = append(pages, ids[start:end])
	}
	return pages
}
