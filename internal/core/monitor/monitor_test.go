package monitor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/guvenlisinav/proctor/internal/core/monitor/store/monitordb"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/domain/uniqueid/store/uniqueiddb"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestCore(t *testing.T, opts ...monitor.Option) *monitor.Core {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatal(err)
	}
	// 每个连接各自一份 :memory: 库，限制为单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	store := monitordb.NewDB(db).AutoMigrate(true)
	uni := uniqueid.NewCore(uniqueiddb.NewDB(db).AutoMigrate(true), 5)
	return monitor.NewCore(store, uni, opts...)
}

func TestHeartbeatCreatesSessionOnce(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	first, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
		StudentID: "STU001", ExamID: "MATH2025", IsActive: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == "" {
		t.Fatal("session id not assigned")
	}

	second, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
		StudentID: "STU001", ExamID: "MATH2025", IsActive: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatalf("second heartbeat created a new session: %s != %s", second.ID, first.ID)
	}

	// fresh session starts with a zeroed aggregate
	stats, err := core.GetStats(ctx, "MATH2025", "STU001")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalViolations != 0 || stats.Sum() != 0 {
		t.Fatalf("new session has nonzero counters: %+v", stats)
	}
}

func TestSessionStaleness(t *testing.T) {
	core := newTestCore(t, monitor.WithStalenessWindow(30*time.Second))
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if _, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
		StudentID: "STU001", ExamID: "MATH2025", IsActive: true, Timestamp: at,
	}); err != nil {
		t.Fatal(err)
	}

	if !core.IsSessionActive("MATH2025", "STU001", at.Add(29*time.Second)) {
		t.Fatal("session stale at 29s, want active")
	}
	if core.IsSessionActive("MATH2025", "STU001", at.Add(31*time.Second)) {
		t.Fatal("session active at 31s, want stale")
	}
	if core.IsSessionActive("MATH2025", "STU999", at) {
		t.Fatal("unknown pair reported active")
	}
}

func TestHeartbeatInactiveFlag(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	at := time.Now()
	if _, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
		StudentID: "STU001", ExamID: "MATH2025", IsActive: false, Timestamp: at,
	}); err != nil {
		t.Fatal(err)
	}
	// a fresh heartbeat that declares itself inactive wins over recency
	if core.IsSessionActive("MATH2025", "STU001", at.Add(time.Second)) {
		t.Fatal("inactive heartbeat reported active")
	}
}

func TestRecordViolationRequiresHeartbeat(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	_, err := core.RecordViolation(ctx, monitor.Event{
		StudentID: "STU001", ExamID: "MATH2025", Type: monitor.TypeFaceMissing,
	})
	if err == nil {
		t.Fatal("violation accepted without a session")
	}

	// the failed lookup must leave no aggregate behind
	if _, err := core.GetStats(ctx, "MATH2025", "STU001"); err == nil {
		t.Fatal("stats row created by a rejected violation")
	}
}

func TestRecordViolationAggregates(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	if _, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
		StudentID: "STU001", ExamID: "MATH2025", IsActive: true,
	}); err != nil {
		t.Fatal(err)
	}

	events := []monitor.ViolationType{
		monitor.TypeFaceMissing,
		monitor.TypeGazeAway,
		monitor.TypeGazeAway,
		monitor.TypeMultipleFaces,
		monitor.TypeProhibitedObject,
		monitor.TypeWrongStudent,
		monitor.ViolationType("made_up_type"),
	}
	for _, typ := range events {
		v, err := core.RecordViolation(ctx, monitor.Event{
			StudentID: "STU001", ExamID: "MATH2025", Type: typ,
		})
		if err != nil {
			t.Fatal(err)
		}
		if v.Severity != monitor.SeverityMedium {
			t.Fatalf("default severity = %s, want medium", v.Severity)
		}
	}

	stats, err := core.GetStats(ctx, "MATH2025", "STU001")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalViolations != int64(len(events)) {
		t.Fatalf("total = %d, want %d", stats.TotalViolations, len(events))
	}
	if stats.TotalViolations != stats.Sum() {
		t.Fatalf("total %d != category sum %d", stats.TotalViolations, stats.Sum())
	}
	// wrong_student counts as a face violation, unknown types as other
	if stats.FaceViolations != 2 {
		t.Fatalf("face violations = %d, want 2", stats.FaceViolations)
	}
	if stats.EyeViolations != 2 || stats.MultiFaceViols != 1 || stats.ObjectViols != 1 {
		t.Fatalf("category counters wrong: %+v", stats)
	}
	if stats.OtherViols != 1 {
		t.Fatalf("other violations = %d, want 1", stats.OtherViols)
	}
}

func TestRecordViolationConcurrent(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	if _, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
		StudentID: "STU001", ExamID: "MATH2025", IsActive: true,
	}); err != nil {
		t.Fatal(err)
	}

	const n = 40
	var wg sync.WaitGroup
	types := []monitor.ViolationType{
		monitor.TypeFaceMissing, monitor.TypeGazeAway,
		monitor.TypeMouthMoving, monitor.TypeProhibitedObject,
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(typ monitor.ViolationType) {
			defer wg.Done()
			if _, err := core.RecordViolation(ctx, monitor.Event{
				StudentID: "STU001", ExamID: "MATH2025", Type: typ,
			}); err != nil {
				t.Error(err)
			}
		}(types[i%len(types)])
	}
	wg.Wait()

	stats, err := core.GetStats(ctx, "MATH2025", "STU001")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalViolations != n {
		t.Fatalf("total = %d, want %d", stats.TotalViolations, n)
	}
	if stats.TotalViolations != stats.Sum() {
		t.Fatalf("total %d != category sum %d", stats.TotalViolations, stats.Sum())
	}

	items, total, err := core.FindViolations(ctx, &monitor.FindViolationInput{
		PagerFilter: web.PagerFilter{Page: 1, Size: 100},
		ExamID:      "MATH2025", StudentID: "STU001",
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != n {
		t.Fatalf("persisted %d violations, want %d", total, n)
	}
	if len(items) == 0 {
		t.Fatal("find returned no rows")
	}
}

func TestStudentsStatus(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	at := time.Now()
	for _, sid := range []string{"STU001", "STU002"} {
		if _, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
			StudentID: sid, ExamID: "MATH2025", IsActive: true, Timestamp: at,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
		StudentID: "STU003", ExamID: "PHYS2025", IsActive: true, Timestamp: at,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := core.RecordViolation(ctx, monitor.Event{
		StudentID: "STU001", ExamID: "MATH2025", Type: monitor.TypeGazeAway,
	}); err != nil {
		t.Fatal(err)
	}

	rows := core.StudentsStatus("MATH2025", at.Add(time.Second))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (other exams excluded)", len(rows))
	}
	byID := make(map[string]monitor.StudentStatus, len(rows))
	for _, r := range rows {
		byID[r.StudentID] = r
	}
	if got := byID["STU001"]; !got.IsActive || got.TotalViolations != 1 || got.EyeViolations != 1 {
		t.Fatalf("STU001 status wrong: %+v", got)
	}
	if got := byID["STU002"]; got.TotalViolations != 0 {
		t.Fatalf("STU002 status wrong: %+v", got)
	}
}

// 状态行的分类计数相加必须等于总数，含兜底的 other 分类
func TestStudentsStatusCategoriesSumToTotal(t *testing.T) {
	core := newTestCore(t)
	ctx := context.Background()

	at := time.Now()
	if _, err := core.Heartbeat(ctx, &monitor.HeartbeatInput{
		StudentID: "STU001", ExamID: "MATH2025", IsActive: true, Timestamp: at,
	}); err != nil {
		t.Fatal(err)
	}
	for _, typ := range []monitor.ViolationType{
		monitor.TypeGazeAway,
		monitor.TypeProhibitedObject,
		monitor.ViolationType("made_up_type"),
	} {
		if _, err := core.RecordViolation(ctx, monitor.Event{
			StudentID: "STU001", ExamID: "MATH2025", Type: typ,
		}); err != nil {
			t.Fatal(err)
		}
	}

	rows := core.StudentsStatus("MATH2025", at.Add(time.Second))
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	row := rows[0]
	if row.OtherViols != 1 {
		t.Fatalf("other violations = %d, want 1", row.OtherViols)
	}
	sum := row.FaceViolations + row.EyeViolations + row.MouthViolations +
		row.MultiFaceViols + row.ObjectViols + row.AudioViols + row.OtherViols
	if row.TotalViolations != 3 || sum != row.TotalViolations {
		t.Fatalf("categories sum to %d, total is %d", sum, row.TotalViolations)
	}
}

func TestCategoryOf(t *testing.T) {
	cases := map[monitor.ViolationType]monitor.Category{
		monitor.TypeFaceMissing:           monitor.CategoryFace,
		monitor.TypeWrongStudent:          monitor.CategoryFace,
		monitor.TypeGazeAway:              monitor.CategoryEye,
		monitor.TypeMouthMoving:           monitor.CategoryMouth,
		monitor.TypeMultipleFaces:         monitor.CategoryMultiFace,
		monitor.TypeProhibitedObject:      monitor.CategoryObject,
		monitor.TypeAudio:                 monitor.CategoryAudio,
		monitor.TypeOther:                 monitor.CategoryOther,
		monitor.ViolationType("whatever"): monitor.CategoryOther,
	}
	for typ, want := range cases {
		if got := monitor.CategoryOf(typ); got != want {
			t.Fatalf("CategoryOf(%s) = %s, want %s", typ, got, want)
		}
	}
}
