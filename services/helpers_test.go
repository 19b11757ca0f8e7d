package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/photocard-archive/api-go/config"
	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	images *storage.MemoryStore
	owner  models.User
	other  models.User
	admin  models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     config.NewTestDB(t),
		images: storage.NewMemoryStore(),
	}
	f.owner = f.user("owner", false)
	f.other = f.user("other", false)
	f.admin = f.user("admin", true)
	return f
}

func (f *fixture) user(name string, admin bool) models.User {
	f.t.Helper()
	u := models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hash",
		IsAdmin:  admin,
	}
	require.NoError(f.t, f.db.Create(&u).Error)
	return u
}

func (f *fixture) create(in PhotocardInput) *models.Photocard {
	f.t.Helper()
	p, err := CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, in)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) reload(id uint) *models.Photocard {
	f.t.Helper()
	var p models.Photocard
	require.NoError(f.t, f.db.First(&p, id).Error)
	return &p
}

func (f *fixture) report(reporter models.User, photocardID uint, reasonType string) *models.Report {
	f.t.Helper()
	r, err := CreateReport(f.ctx, f.db, reporter.ID, ReportInput{
		ItemID:     photocardID,
		ReportType: models.ReportTypePhotocard,
		ReasonType: reasonType,
		Reason:     "looks wrong",
	})
	require.NoError(f.t, err)
	return r
}

func (f *fixture) pendingReports(photocardID uint) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&models.Report{}).
		Where("photocard_id = ? AND status = ?", photocardID, models.ReportPending).
		Count(&n).Error)
	return n
}

func intPtr(v int) *int          { return &v }
func uintPtr(v uint) *uint       { return &v }
func stringPtr(v string) *string { return &v }
func boolPtr(v bool) *bool       { return &v }
