package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unishare/internal/models"
)

func TestUnitVisibility(t *testing.T) {
	f := newFixture(t)

	units, err := f.svc.Catalog.ListUnits(f.ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, f.unit.ID, units[0].ID)

	units, err = f.svc.Catalog.ListUnits(f.ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	_, err = f.svc.Catalog.GetUnit(f.ctx, f.alice, f.otherUnit.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Catalog.GetUnit(f.ctx, f.alice, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	unassigned := f.session(t, "S099", models.RoleStudent, nil)
	units, err = f.svc.Catalog.ListUnits(f.ctx, unassigned)
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestCatalogAdministration(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Catalog.CreateProgram(f.ctx, f.alice, "Law")
	assert.ErrorIs(t, err, ErrUnauthorized)

	program, err := f.svc.Catalog.CreateProgram(f.ctx, f.admin, " Law ")
	require.NoError(t, err)
	assert.Equal(t, "Law", program.Name)
	_, err = f.svc.Catalog.CreateProgram(f.ctx, f.admin, "Law")
	assert.ErrorIs(t, err, ErrInvalidInput)

	course, err := f.svc.Catalog.CreateCourse(f.ctx, f.admin, program.ID, "Commercial Law")
	require.NoError(t, err)
	_, err = f.svc.Catalog.CreateCourse(f.ctx, f.admin, 9999, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	ci, err := f.svc.Catalog.CreateClassInstance(f.ctx, f.admin, models.ClassInstance{CourseID: course.ID, Year: 1, Semester: 2, Group: "A"})
	require.NoError(t, err)
	_, err = f.svc.Catalog.CreateClassInstance(f.ctx, f.admin, models.ClassInstance{CourseID: course.ID, Year: 1, Semester: 2, Group: "A"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Catalog.CreateClassInstance(f.ctx, f.admin, models.ClassInstance{CourseID: course.ID, Year: 9, Semester: 1, Group: "A"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	unit, err := f.svc.Catalog.CreateUnit(f.ctx, f.admin, models.Unit{ClassInstanceID: ci.ID, Code: " law101 ", Name: "Contracts"})
	require.NoError(t, err)
	assert.Equal(t, "LAW101", unit.Code)
	_, err = f.svc.Catalog.CreateUnit(f.ctx, f.admin, models.Unit{ClassInstanceID: ci.ID, Code: "", Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
