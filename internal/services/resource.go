package services

import (
	"context"
	"html/template"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"unishare/internal/models"
	"unishare/internal/store"
	"unishare/internal/utils"
)

const maxTitleLength = 200

type ResourceService struct {
	store        store.Store
	catalog      *CatalogService
	points       *PointsService
	files        FileStorage
	leaderboards *LeaderboardService
	now          func() time.Time
}

func NewResourceService(st store.Store, catalog *CatalogService, points *PointsService, files FileStorage, leaderboards *LeaderboardService, now func() time.Time) *ResourceService {
	return &ResourceService{store: st, catalog: catalog, points: points, files: files, leaderboards: leaderboards, now: now}
}

// ResourceView is a resource as shown to clients.
type ResourceView struct {
	models.Resource
	FileURL         string        `json:"file_url,omitempty"`
	DescriptionHTML template.HTML `json:"description_html,omitempty"`
	CanModify       bool          `json:"can_modify"`
}

func (s *ResourceService) view(sess *Session, r models.Resource) ResourceView {
	v := ResourceView{
		Resource:        r,
		DescriptionHTML: utils.RenderMarkdown(r.Description),
		CanModify:       sess.CanModify(r.OwnerID),
	}
	if r.HasFile() && s.files != nil {
		v.FileURL = s.files.PublicURL(r.FilePath)
	}
	return v
}

type ResourceInput struct {
	UnitID      uint                `json:"unit_id"`
	Type        models.ResourceType `json:"type"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Deadline    *time.Time          `json:"deadline"`
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", invalid("title must be at most %d characters", maxTitleLength)
	}
	return title, nil
}

// storeFile uploads file for a resource in unitID and returns its key.
func (s *ResourceService) storeFile(ctx context.Context, unitID uint, file *Upload) (string, error) {
	if s.files == nil {
		return "", invalid("file uploads are not configured")
	}
	key, err := fileKey(unitID, file.Name)
	if err != nil {
		return "", err
	}
	if err := s.files.Upload(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return "", storeError(err, "upload file")
	}
	return key, nil
}

func (s *ResourceService) removeFile(ctx context.Context, key string) {
	if key == "" || s.files == nil {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to delete stored file")
	}
}

// Create stores a new resource owned by the caller and awards upload points.
// Notes and past papers need a file; only assignments take a deadline.
func (s *ResourceService) Create(ctx context.Context, sess *Session, in ResourceInput, file *Upload) (*ResourceView, error) {
	if !in.Type.Valid() {
		return nil, invalid("unknown resource type %q", in.Type)
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if in.Deadline != nil && in.Type != models.ResourceAssignment {
		return nil, invalid("only assignments can have a deadline")
	}
	if file == nil && in.Type != models.ResourceAssignment {
		return nil, invalid("a %s must include a file", in.Type)
	}
	if _, err := s.catalog.visibleUnit(ctx, sess, in.UnitID); err != nil {
		return nil, err
	}

	resource := &models.Resource{
		Type:        in.Type,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     sess.User.ID,
		UnitID:      in.UnitID,
		Deadline:    in.Deadline,
		CreatedAt:   s.now(),
	}
	if file != nil {
		key, err := s.storeFile(ctx, in.UnitID, file)
		if err != nil {
			return nil, err
		}
		resource.FilePath = key
		resource.FileName = file.Name
	}

	delta, action := s.points.UploadDelta(in.Type)
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.CreateResource(ctx, resource); err != nil {
			return err
		}
		_, err := s.points.Award(ctx, tx, sess.User.ID, delta, action, resourceRef(resource.ID))
		return err
	})
	if err != nil {
		s.removeFile(ctx, resource.FilePath)
		return nil, storeError(err, "create resource")
	}

	log.WithFields(log.Fields{
		"resource_id": resource.ID,
		"type":        resource.Type,
		"unit_id":     resource.UnitID,
		"owner_id":    resource.OwnerID,
	}).Info("resource created")
	v := s.view(sess, *resource)
	return &v, nil
}

// ResourceUpdate carries the editable fields; nil means unchanged.
type ResourceUpdate struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
}

// loadForChange returns the resource if the caller may edit or delete it.
func (s *ResourceService) loadForChange(ctx context.Context, sess *Session, id uint) (*models.Resource, error) {
	resource, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, storeError(err, "get resource")
	}
	if !sess.CanModify(resource.OwnerID) {
		log.WithFields(log.Fields{"resource_id": id, "user_id": sess.User.ID}).Warn("resource change rejected")
		return nil, ErrUnauthorized
	}
	return resource, nil
}

func (s *ResourceService) Update(ctx context.Context, sess *Session, id uint, in ResourceUpdate, file *Upload) (*ResourceView, error) {
	resource, err := s.loadForChange(ctx, sess, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		resource.Title = title
	}
	if in.Description != nil {
		resource.Description = strings.TrimSpace(*in.Description)
	}
	if in.Deadline != nil || in.ClearDeadline {
		if resource.Type != models.ResourceAssignment {
			return nil, invalid("only assignments can have a deadline")
		}
		resource.Deadline = in.Deadline
		if in.ClearDeadline {
			resource.Deadline = nil
		}
	}

	oldFile := ""
	if file != nil {
		key, err := s.storeFile(ctx, resource.UnitID, file)
		if err != nil {
			return nil, err
		}
		oldFile = resource.FilePath
		resource.FilePath = key
		resource.FileName = file.Name
	}

	if err := s.store.UpdateResource(ctx, resource); err != nil {
		if file != nil {
			s.removeFile(ctx, resource.FilePath)
		}
		return nil, storeError(err, "update resource")
	}
	s.removeFile(ctx, oldFile)

	v := s.view(sess, *resource)
	return &v, nil
}

// Delete removes a resource together with its completions, comments and
// votes in one transaction, then drops the stored file.
func (s *ResourceService) Delete(ctx context.Context, sess *Session, id uint) error {
	resource, err := s.loadForChange(ctx, sess, id)
	if err != nil {
		return err
	}

	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.DeleteCompletions(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteComments(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteVotes(ctx, id); err != nil {
			return err
		}
		return tx.DeleteResource(ctx, id)
	})
	if err != nil {
		return storeError(err, "delete resource")
	}

	s.removeFile(ctx, resource.FilePath)
	s.leaderboards.Invalidate(ctx, resource.UnitID)
	log.WithFields(log.Fields{"resource_id": id, "by": sess.User.ID}).Info("resource deleted")
	return nil
}

// visibleResource loads a resource whose unit the caller can see.
func (s *ResourceService) visibleResource(ctx context.Context, sess *Session, id uint) (*models.Resource, error) {
	return loadVisibleResource(ctx, s.store, s.catalog, sess, id)
}

func loadVisibleResource(ctx context.Context, st store.Store, catalog *CatalogService, sess *Session, id uint) (*models.Resource, error) {
	resource, err := st.GetResource(ctx, id)
	if err != nil {
		return nil, storeError(err, "get resource")
	}
	if _, err := catalog.visibleUnit(ctx, sess, resource.UnitID); err != nil {
		return nil, err
	}
	return resource, nil
}

func (s *ResourceService) Get(ctx context.Context, sess *Session, id uint) (*ResourceView, error) {
	resource, err := s.visibleResource(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	v := s.view(sess, *resource)
	return &v, nil
}

// Sort orders for ListByUnit.
const (
	SortNewest = "new"
	SortTop    = "top"
)

// ListByUnit lists a unit's resources, optionally of one type, newest first
// or by popularity.
func (s *ResourceService) ListByUnit(ctx context.Context, sess *Session, unitID uint, typ models.ResourceType, order string) ([]ResourceView, error) {
	if typ != "" && !typ.Valid() {
		return nil, invalid("unknown resource type %q", typ)
	}
	if _, err := s.catalog.visibleUnit(ctx, sess, unitID); err != nil {
		return nil, err
	}
	resources, err := s.store.ListResources(ctx, store.ResourceFilter{UnitID: unitID, Type: typ})
	if err != nil {
		return nil, storeError(err, "list resources")
	}

	if order == SortTop {
		now := s.now()
		sort.SliceStable(resources, func(i, j int) bool {
			a, b := resources[i], resources[j]
			return utils.ResourceScore(a.CreatedAt, now, a.Likes, a.Dislikes) >
				utils.ResourceScore(b.CreatedAt, now, b.Likes, b.Dislikes)
		})
	}

	views := make([]ResourceView, 0, len(resources))
	for _, r := range resources {
		views = append(views, s.view(sess, r))
	}
	return views, nil
}
