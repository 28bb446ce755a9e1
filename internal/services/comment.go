package services

import (
	"context"
	"html/template"
	"strings"
	"unicode/utf8"

	"unishare/internal/models"
	"unishare/internal/store"
	"unishare/internal/utils"
)

const MaxCommentLength = 2000

type CommentService struct {
	store    store.Store
	catalog  *CatalogService
	points   *PointsService
	notifier Notifier
}

func NewCommentService(st store.Store, catalog *CatalogService, points *PointsService, notifier Notifier) *CommentService {
	return &CommentService{store: st, catalog: catalog, points: points, notifier: notifier}
}

type CommentView struct {
	models.Comment
	AuthorName string        `json:"author_name"`
	HTML       template.HTML `json:"html"`
}

// AddComment appends a markdown comment to a resource.
func (s *CommentService) AddComment(ctx context.Context, sess *Session, resourceID uint, content string) (*CommentView, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, invalid("comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, invalid("comment must be at most %d characters", MaxCommentLength)
	}
	resource, err := loadVisibleResource(ctx, s.store, s.catalog, sess, resourceID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{ResourceID: resourceID, UserID: sess.User.ID, Content: content}
	delta, action, enabled := s.points.CommentDelta()
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.CreateComment(ctx, comment); err != nil {
			return err
		}
		if !enabled {
			return nil
		}
		_, err := s.points.Award(ctx, tx, sess.User.ID, delta, action, resourceRef(resourceID))
		return err
	})
	if err != nil {
		return nil, storeError(err, "add comment")
	}

	if resource.OwnerID != sess.User.ID {
		if owner, err := s.store.GetUser(ctx, resource.OwnerID); err == nil {
			s.notifier.SendCommentNotification(owner.Email, sess.User.DisplayName, resource.Title, content)
		}
	}

	return &CommentView{
		Comment:    *comment,
		AuthorName: sess.User.DisplayName,
		HTML:       utils.RenderMarkdown(content),
	}, nil
}

// ListComments returns a resource's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, sess *Session, resourceID uint) ([]CommentView, error) {
	if _, err := loadVisibleResource(ctx, s.store, s.catalog, sess, resourceID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, resourceID)
	if err != nil {
		return nil, storeError(err, "list comments")
	}

	names := make(map[uint]string)
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		name, ok := names[c.UserID]
		if !ok {
			if u, err := s.store.GetUser(ctx, c.UserID); err == nil {
				name = u.DisplayName
			}
			names[c.UserID] = name
		}
		views = append(views, CommentView{Comment: c, AuthorName: name, HTML: utils.RenderMarkdown(c.Content)})
	}
	return views, nil
}
