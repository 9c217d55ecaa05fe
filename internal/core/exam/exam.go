// Package exam manages exams, the student roster and exam registrations.
package exam

import (
	"context"
	"log/slog"
	"time"

	"github.com/guvenlisinav/proctor/internal/core/bz"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/jinzhu/copier"
)

// Storer data persistence
type Storer interface {
	Exam() ExamStorer
	Student() StudentStorer
	Registration() RegistrationStorer
}

type ExamStorer interface {
	Add(context.Context, *Exam) error
	Edit(context.Context, *Exam, func(*Exam), ...orm.QueryOption) error
	Get(context.Context, *Exam, ...orm.QueryOption) error
	Find(context.Context, *[]*Exam, orm.Pager, ...orm.QueryOption) (int64, error)
}

type StudentStorer interface {
	Add(context.Context, *Student) error
	Edit(context.Context, *Student, func(*Student), ...orm.QueryOption) error
	Get(context.Context, *Student, ...orm.QueryOption) error
	Find(context.Context, *[]*Student, orm.Pager, ...orm.QueryOption) (int64, error)
	Del(context.Context, *Student, ...orm.QueryOption) error
}

type RegistrationStorer interface {
	Add(context.Context, *Registration) error
	Get(context.Context, *Registration, ...orm.QueryOption) error
	Find(context.Context, *[]*Registration, orm.Pager, ...orm.QueryOption) (int64, error)
	Del(context.Context, *Registration, ...orm.QueryOption) error
}

// Core business domain
type Core struct {
	store Storer
	uni   uniqueid.Core
}

func NewCore(store Storer, uni uniqueid.Core) Core {
	return Core{store: store, uni: uni}
}

// CreateExam 创建考试，考试码重复视为错误请求
func (c Core) CreateExam(ctx context.Context, in *CreateExamInput) (*Exam, error) {
	var exist Exam
	err := c.store.Exam().Get(ctx, &exist, orm.Where("exam_code=?", in.Code))
	if err == nil {
		return nil, reason.ErrBadRequest.SetMsg("exam code already exists")
	}
	if !orm.IsErrRecordNotFound(err) {
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}

	ex := Exam{
		ID:           c.uni.UniqueID(bz.IDPrefixExam),
		Name:         in.Name,
		Code:         in.Code,
		StartTime:    orm.Time{Time: in.StartTime},
		EndTime:      orm.Time{Time: in.EndTime},
		DurationMin:  in.DurationMin,
		Status:       StatusScheduled,
		URL:          in.URL,
		Instructions: in.Instructions,
	}
	if err := c.store.Exam().Add(ctx, &ex); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}

	for _, sid := range in.StudentIDs {
		if err := c.Register(ctx, ex.ID, sid); err != nil {
			return nil, err
		}
	}
	return &ex, nil
}

// UpdateExam 更新考试信息，已结束的考试不可修改
func (c Core) UpdateExam(ctx context.Context, code string, in *UpdateExamInput) (*Exam, error) {
	var ex Exam
	if err := c.store.Exam().Edit(ctx, &ex, func(e *Exam) {
		if err := copier.CopyWithOption(e, in, copier.Option{IgnoreEmpty: true}); err != nil {
			slog.ErrorContext(ctx, "Copy", "err", err)
		}
	}, orm.Where("exam_code=? AND status != ?", code, StatusFinished)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("exam not found or already finished")
		}
		return nil, reason.ErrDB.Withf(`Edit err[%s]`, err.Error())
	}
	return &ex, nil
}

// GetExamByCode 按考试码查询
func (c Core) GetExamByCode(ctx context.Context, code string) (*Exam, error) {
	var ex Exam
	if err := c.store.Exam().Get(ctx, &ex, orm.Where("exam_code=?", code)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("exam not found")
		}
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}
	return &ex, nil
}

// StartExam 将考试置为进行中，重复开始视为幂等
func (c Core) StartExam(ctx context.Context, code string) (*Exam, error) {
	var ex Exam
	if err := c.store.Exam().Edit(ctx, &ex, func(e *Exam) {
		if e.Status == StatusScheduled {
			e.Status = StatusActive
			e.StartTime = orm.Now()
		}
	}, orm.Where("exam_code=?", code)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("exam not found")
		}
		return nil, reason.ErrDB.Withf(`Edit err[%s]`, err.Error())
	}
	if ex.Status == StatusFinished {
		return nil, reason.ErrBadRequest.SetMsg("exam already finished")
	}
	return &ex, nil
}

// FinishExam 结束考试
func (c Core) FinishExam(ctx context.Context, code string) (*Exam, error) {
	var ex Exam
	if err := c.store.Exam().Edit(ctx, &ex, func(e *Exam) {
		e.Status = StatusFinished
		e.EndTime = orm.Now()
	}, orm.Where("exam_code=?", code)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("exam not found")
		}
		return nil, reason.ErrDB.Withf(`Edit err[%s]`, err.Error())
	}
	return &ex, nil
}

// FindExams 分页查询
func (c Core) FindExams(ctx context.Context, in *FindExamInput) ([]*Exam, int64, error) {
	query := orm.NewQuery(1).OrderBy("created_at DESC")
	if in.Status != "" {
		query.Where("status = ?", in.Status)
	}
	items := make([]*Exam, 0, in.Limit())
	total, err := c.store.Exam().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find err[%s]`, err.Error())
	}
	return items, total, nil
}

// Register 报名，已报名时幂等返回
func (c Core) Register(ctx context.Context, examID, studentID string) error {
	var reg Registration
	err := c.store.Registration().Get(ctx, &reg,
		orm.Where("exam_id=? AND student_id=?", examID, studentID))
	if err == nil {
		return nil
	}
	if !orm.IsErrRecordNotFound(err) {
		return reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}
	reg = Registration{
		ExamID:       examID,
		StudentID:    studentID,
		Status:       RegStatusRegistered,
		RegisteredAt: orm.Time{Time: time.Now()},
	}
	if err := c.store.Registration().Add(ctx, &reg); err != nil {
		return reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return nil
}

// VerifyStudent 开考前校验：考试存在、考生存在、且已报名
func (c Core) VerifyStudent(ctx context.Context, examCode, studentID string) (*VerifyOutput, error) {
	ex, err := c.GetExamByCode(ctx, examCode)
	if err != nil {
		return nil, err
	}

	var stu Student
	if err := c.store.Student().Get(ctx, &stu, orm.Where("student_id=?", studentID)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("student not found")
		}
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}

	out := VerifyOutput{
		ExamID:      ex.ID,
		ExamName:    ex.Name,
		ExamStatus:  ex.Status,
		StudentName: stu.FullName,
	}
	var reg Registration
	err = c.store.Registration().Get(ctx, &reg,
		orm.Where("exam_id=? AND student_id=?", ex.ID, studentID))
	if err != nil {
		if orm.IsErrRecordNotFound(err) {
			return &out, nil
		}
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}
	out.Registered = true
	out.RegStatus = reg.Status
	return &out, nil
}
