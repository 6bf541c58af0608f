package dialect

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

func (m MySQL) Placeholder(n int) string {
	return "?"
}

func (m MySQL) Name() string {
	return "mysql"
}
