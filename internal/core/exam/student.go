package exam

import (
	"context"

	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
)

// CreateStudent 学号与邮箱都要求唯一
func (c Core) CreateStudent(ctx context.Context, in *CreateStudentInput) (*Student, error) {
	var exist Student
	err := c.store.Student().Get(ctx, &exist,
		orm.Where("student_id=? OR email=?", in.StudentID, in.Email))
	if err == nil {
		return nil, reason.ErrBadRequest.SetMsg("student id or email already exists")
	}
	if !orm.IsErrRecordNotFound(err) {
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}

	stu := Student{
		StudentID: in.StudentID,
		FullName:  in.FullName,
		Email:     in.Email,
	}
	if err := c.store.Student().Add(ctx, &stu); err != nil {
		return nil, reason.ErrDB.Withf(`Add err[%s]`, err.Error())
	}
	return &stu, nil
}

// UpdateStudent 按学号更新姓名和邮箱
func (c Core) UpdateStudent(ctx context.Context, studentID string, in *UpdateStudentInput) (*Student, error) {
	var stu Student
	if err := c.store.Student().Edit(ctx, &stu, func(s *Student) {
		if in.FullName != "" {
			s.FullName = in.FullName
		}
		if in.Email != "" {
			s.Email = in.Email
		}
	}, orm.Where("student_id=?", studentID)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("student not found")
		}
		return nil, reason.ErrDB.Withf(`Edit err[%s]`, err.Error())
	}
	return &stu, nil
}

// DeleteStudent 连同报名记录一起删除
func (c Core) DeleteStudent(ctx context.Context, studentID string) error {
	var stu Student
	if err := c.store.Student().Get(ctx, &stu, orm.Where("student_id=?", studentID)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return reason.ErrNotFound.SetMsg("student not found")
		}
		return reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}
	if err := c.store.Registration().Del(ctx, &Registration{},
		orm.Where("student_id=?", studentID)); err != nil {
		return reason.ErrDB.Withf(`Del err[%s]`, err.Error())
	}
	if err := c.store.Student().Del(ctx, &stu, orm.Where("student_id=?", studentID)); err != nil {
		return reason.ErrDB.Withf(`Del err[%s]`, err.Error())
	}
	return nil
}

// FindStudents 分页查询，支持学号/姓名模糊匹配
func (c Core) FindStudents(ctx context.Context, in *FindStudentInput) ([]*Student, int64, error) {
	query := orm.NewQuery(1).OrderBy("student_id ASC")
	if in.Keyword != "" {
		query.Where("student_id LIKE ? OR full_name LIKE ?", "%"+in.Keyword+"%", "%"+in.Keyword+"%")
	}
	items := make([]*Student, 0, in.Limit())
	total, err := c.store.Student().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find err[%s]`, err.Error())
	}
	return items, total, nil
}

// GetStudent 按学号查询
func (c Core) GetStudent(ctx context.Context, studentID string) (*Student, error) {
	var stu Student
	if err := c.store.Student().Get(ctx, &stu, orm.Where("student_id=?", studentID)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.SetMsg("student not found")
		}
		return nil, reason.ErrDB.Withf(`Get err[%s]`, err.Error())
	}
	return &stu, nil
}
