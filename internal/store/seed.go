package store

import (
	"context"

	"github.com/pkg/errors"

	"unishare/internal/models"
	"unishare/internal/utils"
)

// SeedDemo fills an empty store with one program down to three units and a
// super admin (ADMIN001) holding adminPassword. Postgres seeds itself in
// db.Open; this is for the memory driver.
func SeedDemo(ctx context.Context, s Store, adminPassword string) error {
	if adminPassword == "" {
		return errors.New("seed: admin password is required")
	}
	hash, err := utils.HashPassword(adminPassword)
	if err != nil {
		return errors.Wrap(err, "seed: hash admin password")
	}
	return s.WithTx(ctx, func(tx Store) error {
		program := models.Program{Name: "Bachelor of Science in Computer Science"}
		if err := tx.CreateProgram(ctx, &program); err != nil {
			return err
		}
		course := models.Course{ProgramID: program.ID, Name: "Computer Science"}
		if err := tx.CreateCourse(ctx, &course); err != nil {
			return err
		}
		class := models.ClassInstance{CourseID: course.ID, Year: 2, Semester: 1, Group: "A"}
		if err := tx.CreateClassInstance(ctx, &class); err != nil {
			return err
		}
		for _, u := range []models.Unit{
			{Code: "CSC201", Name: "Data Structures and Algorithms"},
			{Code: "CSC202", Name: "Database Systems"},
			{Code: "CSC203", Name: "Operating Systems"},
		} {
			u.ClassInstanceID = class.ID
			if err := tx.CreateUnit(ctx, &u); err != nil {
				return err
			}
		}
		return tx.CreateUser(ctx, &models.User{
			AdmissionNumber: "ADMIN001",
			Email:           "admin@unishare.local",
			DisplayName:     "Portal Admin",
			Password:        hash,
			Role:            models.RoleSuperAdmin,
			Rank:            utils.RankFor(0).Level,
		})
	})
}
