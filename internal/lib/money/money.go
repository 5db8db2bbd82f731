// Package money реализует денежные суммы в минимальных единицах валюты
// (центах). Целочисленное представление исключает ошибки округления
// при делении цены между подписчиками.
package money

import "fmt"

// Amount — денежная сумма в центах.
type Amount int64

// FromMajor переводит сумму из основных единиц валюты в центы.
func FromMajor(major int64) Amount {
	return Amount(major * 100)
}

// DivCeil делит сумму на n с округлением вверх до цента.
// Переплата в долю цента допустима, недоплата — нет.
// Паникует при n <= 0: деление цены на ноль подписчиков — ошибка вызывающего.
func (a Amount) DivCeil(n int) Amount {
	if n <= 0 {
		panic(fmt.Sprintf("money: DivCeil by non-positive divisor %d", n))
	}
	return (a + Amount(n) - 1) / Amount(n)
}

// String форматирует сумму в виде "4.50".
func (a Amount) String() string {
	neg := ""
	v := a
	if v < 0 {
		neg = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", neg, v/100, v%100)
}
