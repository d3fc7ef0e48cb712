package user

type UserDB struct {
	ID     string
	Name   string
	Email  string
	Mobile string
	Role   string
}
