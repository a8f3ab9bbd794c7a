package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type mockCommentRepo struct {
	comments map[string]*models.Comment
	seq      int
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	if c, ok := m.comments[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCommentRepo) filter(keep func(*models.Comment) bool) []models.Comment {
	var out []models.Comment
	for _, c := range m.comments {
		if keep(c) {
			out = append(out, *c)
		}
	}
	return out
}

func (m *mockCommentRepo) ListByIdea(ctx context.Context, ideaID string) ([]models.Comment, error) {
	return m.filter(func(c *models.Comment) bool { return c.IdeaID == ideaID }), nil
}

func (m *mockCommentRepo) ListByUser(ctx context.Context, userID string) ([]models.Comment, error) {
	return m.filter(func(c *models.Comment) bool { return c.UserID == userID }), nil
}

func (m *mockCommentRepo) ListReplies(ctx context.Context, parentID string) ([]models.Comment, error) {
	return m.filter(func(c *models.Comment) bool { return c.ParentCommentID != nil && *c.ParentCommentID == parentID }), nil
}

func (m *mockCommentRepo) Create(ctx context.Context, c *models.Comment) error {
	m.seq++
	c.ID = fmt.Sprintf("c%d", m.seq)
	copy := *c
	m.comments[c.ID] = &copy
	return nil
}

func (m *mockCommentRepo) UpdateContent(ctx context.Context, id, content string, at time.Time) error {
	c := m.comments[id]
	c.Content = content
	c.IsEdited = true
	c.EditedAt = &at
	return nil
}

func (m *mockCommentRepo) Delete(ctx context.Context, id, ideaID string) error {
	delete(m.comments, id)
	for cid, c := range m.comments {
		if c.ParentCommentID != nil && *c.ParentCommentID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func newCommentFixture() (*CommentService, *mockCommentRepo, *recordingNotifier, *countingChecker) {
	ideas := &mockIdeaRepo{ideas: map[string]*models.Idea{
		"i1": {ID: "i1", Title: "Bike racks", StudentID: "author", IsActive: true},
		"i2": {ID: "i2", Title: "Solar roof", StudentID: "author", IsActive: true},
	}}
	repo := &mockCommentRepo{comments: map[string]*models.Comment{}}
	notifier := &recordingNotifier{}
	checker := &countingChecker{}
	return NewCommentService(repo, ideas, nil, notifier, checker, nil, nil), repo, notifier, checker
}

func TestCommentServiceCreateAndReply(t *testing.T) {
	svc, _, notifier, checker := newCommentFixture()
	ctx := context.Background()

	root, err := svc.Create(ctx, claims("s1", models.RoleStudent), models.CreateCommentRequest{IdeaID: "i1", Content: "  Love it  "})
	require.NoError(t, err)
	assert.Equal(t, "Love it", root.Content)

	reply, err := svc.Create(ctx, claims("author", models.RoleStudent), models.CreateCommentRequest{IdeaID: "i1", ParentCommentID: &root.ID, Content: "Thanks"})
	require.NoError(t, err)
	assert.Equal(t, root.ID, *reply.ParentCommentID)

	replies, err := svc.Replies(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, replies, 1)

	assert.Equal(t, []models.NotificationType{models.NotificationIdeaCommented}, notifier.types())
	assert.Equal(t, []string{"s1", "author"}, checker.users)
}

func TestCommentServiceParentMustShareIdea(t *testing.T) {
	svc, _, _, _ := newCommentFixture()
	ctx := context.Background()
	root, err := svc.Create(ctx, claims("s1", models.RoleStudent), models.CreateCommentRequest{IdeaID: "i1", Content: "First"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, claims("s1", models.RoleStudent), models.CreateCommentRequest{IdeaID: "i2", ParentCommentID: &root.ID, Content: "Wrong thread"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, claims("s1", models.RoleStudent), models.CreateCommentRequest{IdeaID: "i1", Content: "   "})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCommentServiceEditAndDeletePermissions(t *testing.T) {
	svc, repo, _, _ := newCommentFixture()
	ctx := context.Background()
	c, err := svc.Create(ctx, claims("s1", models.RoleStudent), models.CreateCommentRequest{IdeaID: "i1", Content: "Draft"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, claims("root", models.RoleSuperAdmin), c.ID, models.UpdateCommentRequest{Content: "Hijack"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	edited, err := svc.Update(ctx, claims("s1", models.RoleStudent), c.ID, models.UpdateCommentRequest{Content: "Final"})
	require.NoError(t, err)
	assert.True(t, edited.IsEdited)
	assert.NotNil(t, edited.EditedAt)

	err = svc.Delete(ctx, claims("s2", models.RoleStudent), c.ID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, claims("root", models.RoleSuperAdmin), c.ID))
	assert.Empty(t, repo.comments)
}
