package services

import (
	"sync"
	"testing"

	"github.com/photocard-archive/api-go/models"
	"github.com/photocard-archive/api-go/types"
	"github.com/photocard-archive/api-go/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSequenceValue(t *testing.T) {
	f := newFixture(t)

	for want := int64(1); want <= 3; want++ {
		got, err := NextSequenceValue(f.db, models.PhotocardCounter)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := NextSequenceValue(f.db, "otherCounter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestCreatePhotocardNumbersAreUnique(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	numbers := make(chan types.PhotocardNumber, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{Name: "Amal"})
			if assert.NoError(t, err) {
				numbers <- p.PhotocardNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for n := range numbers {
		assert.Equal(t, types.NumberSequential, n.Kind)
		assert.False(t, seen[n.String()], "number %s issued twice", n)
		seen[n.String()] = true
	}
	assert.Len(t, seen, 10)
}

func TestCreatePhotocard(t *testing.T) {
	f := newFixture(t)

	p, err := CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{
		Name:      "  Amal ",
		Age:       intPtr(2),
		Months:    intPtr(4),
		Condition: stringPtr(models.ConditionMissing),
	})
	require.NoError(t, err)
	assert.Equal(t, "Amal", p.Name)
	assert.Equal(t, types.Sequential(1), p.PhotocardNumber)
	assert.Equal(t, models.VerificationVerified, p.VerificationStatus)
	assert.Equal(t, models.StatusActive, p.Status)
	require.NotNil(t, p.Months)
	assert.Equal(t, 4, *p.Months)

	older, err := CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{Name: "Basel", Age: intPtr(30), Months: intPtr(4)})
	require.NoError(t, err)
	assert.Nil(t, older.Months)
	assert.Equal(t, types.Sequential(2), older.PhotocardNumber)

	unknown, err := CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{Name: "Unknown", IsUnidentified: true})
	require.NoError(t, err)
	assert.Equal(t, models.VerificationUnverified, unknown.VerificationStatus)
}

func TestCreatePhotocardValidation(t *testing.T) {
	f := newFixture(t)

	_, err := CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{Name: " "})
	require.ErrorIs(t, err, utils.ErrValidation)
	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"missing": []string{"name"}}, appErr.Details)

	_, err = CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{Name: "Amal", Condition: stringPtr("lost")})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{Name: "Amal", IsConfirmedDuplicate: boolPtr(true), DuplicateOfID: uintPtr(9999)})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{Name: "Amal", Image: stringPtr("photocards/1/missing.jpg")})
	assert.ErrorIs(t, err, utils.ErrValidation)

	_, err = CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{Name: "Amal", Image: stringPtr("photocards/2/theirs.jpg")})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	var count int64
	require.NoError(t, f.db.Model(&models.Photocard{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdatePhotocard(t *testing.T) {
	f := newFixture(t)
	oldKey := "photocards/1/1700000000_old.jpg"
	newKey := "photocards/1/1700000001_new.jpg"
	f.images.Put(oldKey, []byte("old"))
	f.images.Put(newKey, []byte("new"))
	p := f.create(PhotocardInput{Name: "Amal", Image: stringPtr(oldKey)})
	f.report(f.other, p.ID, models.ReasonMisleading)

	_, err := UpdatePhotocard(f.ctx, f.db, f.images, p.ID, f.other.ID, PhotocardInput{Name: "Mine now"})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	updated, err := UpdatePhotocard(f.ctx, f.db, f.images, p.ID, f.owner.ID, PhotocardInput{
		Name:      "Amal Haddad",
		Age:       intPtr(8),
		Biography: "Last seen at the market.",
		Image:     stringPtr(newKey),
	})
	require.NoError(t, err)
	assert.Equal(t, "Amal Haddad", updated.Name)
	assert.Equal(t, newKey, updated.Image)
	assert.Equal(t, []string{oldKey}, f.images.Deleted())

	stored := f.reload(p.ID)
	assert.True(t, stored.Flagged)
	assert.Equal(t, types.Sequential(1), stored.PhotocardNumber)
}

func TestUpdateDeletedPhotocardConflicts(t *testing.T) {
	f := newFixture(t)
	p := f.create(PhotocardInput{Name: "Amal"})
	require.NoError(t, SoftDeletePhotocard(f.ctx, f.db, f.images, p.ID, Actor{UserID: f.owner.ID}))

	_, err := UpdatePhotocard(f.ctx, f.db, f.images, p.ID, f.owner.ID, PhotocardInput{Name: "Amal"})
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestListPublicPhotocards(t *testing.T) {
	f := newFixture(t)
	missing := f.create(PhotocardInput{Name: "Amal", Condition: stringPtr(models.ConditionMissing)})
	f.create(PhotocardInput{Name: "Basel", Condition: stringPtr(models.ConditionDeceased)})
	f.create(PhotocardInput{Name: "Unknown", IsUnidentified: true, Condition: stringPtr(models.ConditionInjured)})
	blocked := f.create(PhotocardInput{Name: "Carla"})
	_, err := BlockPhotocard(f.ctx, f.db, blocked.ID, f.admin.ID)
	require.NoError(t, err)
	dup := f.create(PhotocardInput{Name: "Amal", Condition: stringPtr(models.ConditionMissing)})
	_, err = ConfirmDuplicate(f.ctx, f.db, dup.ID, missing.ID, f.admin.ID)
	require.NoError(t, err)

	list, err := ListPublicPhotocards(f.ctx, f.db, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), list.Total)
	assert.Len(t, list.Photocards, 4)
	assert.Equal(t, ConditionCounts{Missing: 1, Deceased: 1, Injured: 1, Total: 3}, list.Counts)
	assert.Equal(t, 100, list.Page.Limit)

	list, err = ListPublicPhotocards(f.ctx, f.db, ListOptions{Page: Page{Page: 2, Limit: 2}, ExcludeUnidentified: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	require.Len(t, list.Photocards, 1)
	assert.Equal(t, missing.ID, list.Photocards[0].ID)
}

func TestGetPublicPhotocard(t *testing.T) {
	f := newFixture(t)
	p := f.create(PhotocardInput{Name: "Amal"})

	got, err := GetPublicPhotocard(f.ctx, f.db, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, f.owner.ID, got.CreatedBy.ID)

	_, err = BlockPhotocard(f.ctx, f.db, p.ID, f.admin.ID)
	require.NoError(t, err)
	_, err = GetPublicPhotocard(f.ctx, f.db, p.ID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	admin, err := GetPhotocardAdmin(f.ctx, f.db, p.ID)
	require.NoError(t, err)
	assert.True(t, admin.Blocked)
}

func TestListUserPhotocards(t *testing.T) {
	f := newFixture(t)
	live := f.create(PhotocardInput{Name: "Amal"})
	gone := f.create(PhotocardInput{Name: "Basel"})
	require.NoError(t, SoftDeletePhotocard(f.ctx, f.db, f.images, gone.ID, Actor{UserID: f.owner.ID}))
	unknown := f.create(PhotocardInput{Name: "Unknown", IsUnidentified: true})
	_, err := SubmitIdentification(f.ctx, f.db, unknown.ID, f.other.ID, IdentificationInput{Name: "Carla"})
	require.NoError(t, err)

	list, err := ListUserPhotocards(f.ctx, f.db, f.owner.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{live.ID, unknown.ID}, candidateIDs(list))

	none, err := ListUserPhotocards(f.ctx, f.db, f.other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCreatePhotocardRefusesHiddenDuplicateTarget(t *testing.T) {
	f := newFixture(t)
	original := unidentifiedFive(f)
	v, err := SubmitIdentification(f.ctx, f.db, original.ID, f.other.ID, IdentificationInput{Name: "Amal"})
	require.NoError(t, err)
	removed := f.create(PhotocardInput{Name: "Amal"})
	require.NoError(t, SoftDeletePhotocard(f.ctx, f.db, f.images, removed.ID, Actor{UserID: f.owner.ID}))

	for _, target := range []uint{removed.ID, v.ProvisionalPhotocardID} {
		_, err := CreatePhotocard(f.ctx, f.db, f.images, f.owner.ID, PhotocardInput{
			Name:                 "Amal",
			IsConfirmedDuplicate: boolPtr(true),
			DuplicateOfID:        uintPtr(target),
		})
		assert.ErrorIs(t, err, utils.ErrValidation)
	}
}

func TestUpdateKeepsConfirmedDuplicateLink(t *testing.T) {
	f := newFixture(t)
	original := f.create(PhotocardInput{Name: "Samir"})
	duplicate := f.create(PhotocardInput{Name: "Samir"})
	f.report(f.other, duplicate.ID, models.ReasonMisleading)
	_, err := ConfirmDuplicate(f.ctx, f.db, duplicate.ID, original.ID, f.admin.ID)
	require.NoError(t, err)

	_, err = UpdatePhotocard(f.ctx, f.db, f.images, duplicate.ID, f.owner.ID, PhotocardInput{
		Name:      "Samir",
		Biography: "Seen near the river.",
	})
	require.NoError(t, err)

	kept := f.reload(duplicate.ID)
	assert.True(t, kept.IsConfirmedDuplicate)
	require.NotNil(t, kept.DuplicateOfID)
	assert.Equal(t, original.ID, *kept.DuplicateOfID)
	assert.False(t, kept.Flagged)
	assert.Equal(t, "Seen near the river.", kept.Biography)

	_, err = UpdatePhotocard(f.ctx, f.db, f.images, duplicate.ID, f.owner.ID, PhotocardInput{
		Name:                 "Samir",
		IsConfirmedDuplicate: boolPtr(false),
	})
	require.NoError(t, err)

	cleared := f.reload(duplicate.ID)
	assert.False(t, cleared.IsConfirmedDuplicate)
	assert.Nil(t, cleared.DuplicateOfID)
}

func TestSearchPhotocards(t *testing.T) {
	f := newFixture(t)
	samir := f.create(PhotocardInput{Name: "Samir Haddad"})
	amal := f.create(PhotocardInput{Name: "Amal"})
	hidden := f.create(PhotocardInput{Name: "Samira"})
	_, err := BlockPhotocard(f.ctx, f.db, hidden.ID, f.admin.ID)
	require.NoError(t, err)
	removed := f.create(PhotocardInput{Name: "Samir"})
	require.NoError(t, SoftDeletePhotocard(f.ctx, f.db, f.images, removed.ID, Actor{UserID: f.owner.ID}))

	ids := func(query string) []uint {
		t.Helper()
		found, err := SearchPhotocards(f.ctx, f.db, query)
		require.NoError(t, err)
		out := make([]uint, 0, len(found))
		for _, p := range found {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []uint{samir.ID}, ids("  SAMIR "))
	assert.Equal(t, []uint{amal.ID}, ids("#002"))
	assert.Equal(t, []uint{amal.ID}, ids("2"))
	assert.Empty(t, ids("%"))
	assert.Empty(t, ids("Rami"))

	_, err = SearchPhotocards(f.ctx, f.db, " ")
	assert.ErrorIs(t, err, utils.ErrValidation)
}
