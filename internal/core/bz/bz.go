package bz

// 业务 ID 前缀，用于 uniqueid 生成可读的主键
const (
	IDPrefixStream  = "st"
	IDPrefixSession = "se"
	IDPrefixExam    = "ex"
)
