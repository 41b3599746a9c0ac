package domain

type User struct {
	Id           string
	Username     string
	PasswordHash string
}

// Problem is one entry of a round's problem set. Statements and grading live
// in the problem service; rooms only hand out ids and titles.
type Problem struct {
	Id    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}
