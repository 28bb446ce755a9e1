package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unishare/internal/models"
	"unishare/internal/store"
)

func TestCreateResourceAwardsUploadPoints(t *testing.T) {
	f := newFixture(t)

	note := f.note(t, f.alice)
	assert.Equal(t, 50, f.points(t, f.alice))
	assert.Equal(t, f.alice.User.ID, note.OwnerID)
	assert.True(t, note.CanModify)
	assert.Contains(t, note.FileURL, "/files/units/")
	assert.Equal(t, 1, f.files.count())

	f.assignment(t, f.alice, nil)
	assert.Equal(t, 60, f.points(t, f.alice))

	_, err := f.svc.Resources.Create(f.ctx, f.bob, ResourceInput{
		UnitID: f.unit.ID,
		Type:   models.ResourcePastPaper,
		Title:  "2023 exam",
	}, &Upload{Name: "exam.pdf", Body: bytes.NewBufferString("x")})
	require.NoError(t, err)
	assert.Equal(t, 20, f.points(t, f.bob))

	logs, err := f.svc.Points.History(f.ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, ActionUploadAssignment, logs[0].Action)
	assert.Equal(t, ActionUploadNote, logs[1].Action)
}

func TestCreateResourceValidation(t *testing.T) {
	f := newFixture(t)
	deadline := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	cases := map[string]ResourceInput{
		"unknown type":       {UnitID: f.unit.ID, Type: "video", Title: "x"},
		"empty title":        {UnitID: f.unit.ID, Type: models.ResourceAssignment, Title: "   "},
		"note without file":  {UnitID: f.unit.ID, Type: models.ResourceNote, Title: "x"},
		"deadline on a note": {UnitID: f.unit.ID, Type: models.ResourceNote, Title: "x", Deadline: &deadline},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Resources.Create(f.ctx, f.alice, in, nil)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := f.svc.Resources.Create(f.ctx, f.alice, ResourceInput{UnitID: f.unit.ID, Type: models.ResourceNote, Title: "x"},
		&Upload{Name: "virus.exe", Body: bytes.NewBufferString("x")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Resources.Create(f.ctx, f.outsider, ResourceInput{UnitID: f.unit.ID, Type: models.ResourceAssignment, Title: "x"}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.Zero(t, f.points(t, f.alice))
	assert.Zero(t, f.files.count())
}

func TestNonOwnerCannotChangeResource(t *testing.T) {
	f := newFixture(t)
	r := f.assignment(t, f.alice, nil)

	title := "hijacked"
	_, err := f.svc.Resources.Update(f.ctx, f.bob, r.ID, ResourceUpdate{Title: &title}, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Resources.Delete(f.ctx, f.bob, r.ID), ErrUnauthorized)

	got, err := f.st.GetResource(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lab 1", got.Title)

	view, err := f.svc.Resources.Get(f.ctx, f.bob, r.ID)
	require.NoError(t, err)
	assert.False(t, view.CanModify)
}

func TestOwnerAndAdminCanUpdate(t *testing.T) {
	f := newFixture(t)
	r := f.assignment(t, f.alice, nil)

	title := "Lab 1 (revised)"
	desc := "Use **recursion**"
	deadline := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	view, err := f.svc.Resources.Update(f.ctx, f.alice, r.ID, ResourceUpdate{Title: &title, Description: &desc, Deadline: &deadline}, nil)
	require.NoError(t, err)
	assert.Equal(t, title, view.Title)
	assert.Contains(t, string(view.DescriptionHTML), "<strong>recursion</strong>")
	require.NotNil(t, view.Deadline)

	view, err = f.svc.Resources.Update(f.ctx, f.admin, r.ID, ResourceUpdate{ClearDeadline: true}, nil)
	require.NoError(t, err)
	assert.Nil(t, view.Deadline)

	note := f.note(t, f.alice)
	_, err = f.svc.Resources.Update(f.ctx, f.alice, note.ID, ResourceUpdate{Deadline: &deadline}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateReplacesFile(t *testing.T) {
	f := newFixture(t)
	note := f.note(t, f.alice)

	view, err := f.svc.Resources.Update(f.ctx, f.alice, note.ID, ResourceUpdate{},
		&Upload{Name: "week1-v2.pdf", Body: bytes.NewBufferString("v2")})
	require.NoError(t, err)
	assert.Equal(t, "week1-v2.pdf", view.FileName)
	assert.NotEqual(t, note.FilePath, view.FilePath)
	assert.Equal(t, 1, f.files.count())
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	r := f.assignment(t, f.alice, nil)

	_, err := f.svc.Completions.Complete(f.ctx, f.bob, r.ID)
	require.NoError(t, err)
	_, err = f.svc.Comments.AddComment(f.ctx, f.bob, r.ID, "nice")
	require.NoError(t, err)
	_, err = f.svc.Votes.Vote(f.ctx, f.bob, r.ID, models.VoteLike)
	require.NoError(t, err)

	require.NoError(t, f.svc.Resources.Delete(f.ctx, f.alice, r.ID))

	_, err = f.st.GetResource(f.ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	completions, err := f.st.ListCompletions(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, completions)
	comments, err := f.st.ListComments(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	_, err = f.st.GetVote(f.ctx, f.bob.User.ID, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = f.svc.Resources.Get(f.ctx, f.alice, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdminDeleteRemovesFile(t *testing.T) {
	f := newFixture(t)
	note := f.note(t, f.alice)
	require.Equal(t, 1, f.files.count())

	require.NoError(t, f.svc.Resources.Delete(f.ctx, f.admin, note.ID))
	assert.Zero(t, f.files.count())
}

func TestListByUnit(t *testing.T) {
	f := newFixture(t)
	first := f.assignment(t, f.alice, nil)
	f.clock.Set(f.clock.Now().Add(time.Hour))
	second := f.note(t, f.bob)

	all, err := f.svc.Resources.ListByUnit(f.ctx, f.alice, f.unit.ID, "", SortNewest)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	notes, err := f.svc.Resources.ListByUnit(f.ctx, f.alice, f.unit.ID, models.ResourceNote, SortNewest)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, second.ID, notes[0].ID)

	_, err = f.svc.Votes.Vote(f.ctx, f.bob, first.ID, models.VoteLike)
	require.NoError(t, err)
	_, err = f.svc.Votes.Vote(f.ctx, f.outsider, first.ID, models.VoteLike)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Votes.Vote(f.ctx, f.admin, first.ID, models.VoteLike)
	require.NoError(t, err)

	top, err := f.svc.Resources.ListByUnit(f.ctx, f.alice, f.unit.ID, "", SortTop)
	require.NoError(t, err)
	assert.Equal(t, first.ID, top[0].ID)

	_, err = f.svc.Resources.ListByUnit(f.ctx, f.outsider, f.unit.ID, "", SortNewest)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Resources.ListByUnit(f.ctx, f.alice, f.unit.ID, "video", SortNewest)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
