package monitordb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/guvenlisinav/proctor/internal/core/monitor"
	"github.com/ixugo/goddd/pkg/orm"
)

func TestSessionGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	sessionDB := NewSession(db)

	mock.ExpectQuery(`SELECT \* FROM "sessions" WHERE exam_id=\$1 AND student_id=\$2 (.+) LIMIT \$3`).
		WithArgs("MATH2025", "STU001", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "exam_id", "student_id", "is_active"}).
			AddRow("se_abc", "MATH2025", "STU001", true))

	var out monitor.Session
	if err := sessionDB.Get(context.Background(), &out,
		orm.Where("exam_id=? AND student_id=?", "MATH2025", "STU001")); err != nil {
		t.Fatal(err)
	}
	if out.ID != "se_abc" || !out.IsActive {
		t.Fatalf("scanned session wrong: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestSessionFind(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	sessionDB := NewSession(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "sessions" WHERE exam_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "sessions" WHERE exam_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "exam_id", "student_id"}).
			AddRow("se_a", "MATH2025", "STU001").
			AddRow("se_b", "MATH2025", "STU002"))

	var out []*monitor.Session
	total, err := sessionDB.Find(context.Background(), &out,
		&monitor.FindSessionInput{}, orm.Where("exam_id = ?", "MATH2025"))
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(out) != 2 {
		t.Fatalf("total=%d len=%d, want 2/2", total, len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestViolationAdd(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	violationDB := NewViolation(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "violations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	v := monitor.Violation{
		SessionID: "se_abc",
		ExamID:    "MATH2025",
		StudentID: "STU001",
		Type:      monitor.TypeFaceMissing,
		Severity:  monitor.SeverityMedium,
	}
	if err := violationDB.Add(context.Background(), &v); err != nil {
		t.Fatal(err)
	}
	if v.ID != 7 {
		t.Fatalf("returned id = %d, want 7", v.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
