package subscription

import "fmt"

// UserNotFoundError возвращается, когда пользователь с указанным email
// не зарегистрирован.
type UserNotFoundError struct {
	Email string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("could not find user with email: %s", e.Email)
}

// CategoryNotFoundError возвращается, когда категории с указанным именем
// нет в каталоге.
type CategoryNotFoundError struct {
	Name string
}

func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("could not find category with name: %s", e.Name)
}

// AlreadySubscribedError возвращается, когда пользователь уже подписан
// на категорию.
type AlreadySubscribedError struct {
	Email    string
	Category string
}

func (e *AlreadySubscribedError) Error() string {
	return fmt.Sprintf("user with email: %s is already subscribed to category: %s", e.Email, e.Category)
}

// NotSubscribedError возвращается, когда у владельца нет подписки
// на категорию, которой он пытается поделиться.
type NotSubscribedError struct {
	Email    string
	Category string
}

func (e *NotSubscribedError) Error() string {
	return fmt.Sprintf("user with email: %s is not subscribed to category: %s", e.Email, e.Category)
}
