package evidence

import "github.com/ixugo/goddd/pkg/orm"

// Artifact 证据截图的审计记录，只追加，不修改
type Artifact struct {
	ID        int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string   `gorm:"column:session_id;index;notNull;default:''" json:"session_id"`
	StreamID  string   `gorm:"column:stream_id;index;notNull;default:''" json:"stream_id"`
	Seq       int64    `gorm:"column:seq;notNull;default:0" json:"seq"` // per-session capture sequence
	Kind      string   `gorm:"column:kind;notNull;default:''" json:"kind"`
	Label     string   `gorm:"column:label;notNull;default:''" json:"label"`
	Path      string   `gorm:"column:path;notNull;default:''" json:"path"` // relative to the evidence dir
	Box       string   `gorm:"column:box;notNull;default:''" json:"box"`   // "[x1,y1,x2,y2]"
	Model     string   `gorm:"column:model;notNull;default:''" json:"model"`
	CreatedAt orm.Time `gorm:"column:created_at;notNull" json:"created_at"`
}

func (*Artifact) TableName() string {
	return "evidence_artifacts"
}
