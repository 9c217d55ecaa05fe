package api

import (
	"github.com/gin-gonic/gin"
	"github.com/guvenlisinav/proctor/internal/core/broadcast"
	"github.com/guvenlisinav/proctor/internal/core/exam"
	"github.com/guvenlisinav/proctor/internal/core/exam/store/examdb"
	"github.com/ixugo/goddd/domain/uniqueid"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/gorm"
)

// ExamAPI 为 http 提供业务方法
type ExamAPI struct {
	core exam.Core
	hub  *broadcast.Hub
}

// NewExamStore 创建考试存储层
func NewExamStore(db *gorm.DB) exam.Storer {
	return examdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
}

func NewExamCore(store exam.Storer, uni uniqueid.Core) exam.Core {
	return exam.NewCore(store, uni)
}

func NewExamAPI(core exam.Core, hub *broadcast.Hub) ExamAPI {
	return ExamAPI{core: core, hub: hub}
}

func RegisterExam(g gin.IRouter, api ExamAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/api", handler...)
	group.POST("/exams", web.WrapH(api.createExam))
	group.GET("/exams", web.WrapH(api.findExams))
	group.GET("/exams/:exam_code", web.WrapH(api.getExam))
	group.PUT("/exams/:exam_code", web.WrapH(api.updateExam))
	group.POST("/exams/:exam_code/start", web.WrapH(api.startExam))
	group.POST("/exams/:exam_code/finish", web.WrapH(api.finishExam))
	group.GET("/exams/:exam_code/verify/:student_id", web.WrapH(api.verifyStudent))

	group.POST("/students", web.WrapH(api.createStudent))
	group.GET("/students", web.WrapH(api.findStudents))
	group.PUT("/students/:student_id", web.WrapH(api.updateStudent))
	group.DELETE("/students/:student_id", web.WrapH(api.deleteStudent))
}

func (a ExamAPI) createExam(c *gin.Context, in *exam.CreateExamInput) (*exam.Exam, error) {
	return a.core.CreateExam(c.Request.Context(), in)
}

func (a ExamAPI) findExams(c *gin.Context, in *exam.FindExamInput) (any, error) {
	items, total, err := a.core.FindExams(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a ExamAPI) getExam(c *gin.Context, _ *struct{}) (*exam.Exam, error) {
	return a.core.GetExamByCode(c.Request.Context(), c.Param("exam_code"))
}

func (a ExamAPI) updateExam(c *gin.Context, in *exam.UpdateExamInput) (*exam.Exam, error) {
	return a.core.UpdateExam(c.Request.Context(), c.Param("exam_code"), in)
}

// startExam 开考并通知该考试的所有观察者
func (a ExamAPI) startExam(c *gin.Context, _ *struct{}) (*exam.Exam, error) {
	ex, err := a.core.StartExam(c.Request.Context(), c.Param("exam_code"))
	if err != nil {
		return nil, err
	}
	a.hub.Publish(ex.ID, broadcast.EventExamStarted, ex)
	return ex, nil
}

func (a ExamAPI) finishExam(c *gin.Context, _ *struct{}) (*exam.Exam, error) {
	return a.core.FinishExam(c.Request.Context(), c.Param("exam_code"))
}

func (a ExamAPI) verifyStudent(c *gin.Context, _ *struct{}) (*exam.VerifyOutput, error) {
	return a.core.VerifyStudent(c.Request.Context(), c.Param("exam_code"), c.Param("student_id"))
}

func (a ExamAPI) createStudent(c *gin.Context, in *exam.CreateStudentInput) (*exam.Student, error) {
	return a.core.CreateStudent(c.Request.Context(), in)
}

func (a ExamAPI) findStudents(c *gin.Context, in *exam.FindStudentInput) (any, error) {
	items, total, err := a.core.FindStudents(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a ExamAPI) updateStudent(c *gin.Context, in *exam.UpdateStudentInput) (*exam.Student, error) {
	return a.core.UpdateStudent(c.Request.Context(), c.Param("student_id"), in)
}

func (a ExamAPI) deleteStudent(c *gin.Context, _ *struct{}) (any, error) {
	err := a.core.DeleteStudent(c.Request.Context(), c.Param("student_id"))
	return gin.H{"msg": "ok"}, err
}
