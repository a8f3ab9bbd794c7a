package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/export"
)

const exportPageSize = 100

type exportEventSource interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
}

type exportIdeaSource interface {
	List(ctx context.Context, filter models.IdeaFilter) ([]models.Idea, int, error)
}

// ExportDocument is a rendered attachment.
type ExportDocument struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders proposal reports and idea leaderboards.
type ExportService struct {
	events exportEventSource
	ideas  exportIdeaSource
	clubs  clubReader
	logger *zap.Logger
	now    func() time.Time
}

func NewExportService(events exportEventSource, ideas exportIdeaSource, clubs clubReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{events: events, ideas: ideas, clubs: clubs, logger: logger, now: time.Now}
}

// EventsReport lists event proposals, optionally narrowed to one status.
func (s *ExportService) EventsReport(ctx context.Context, actor *models.JWTClaims, status models.EventStatus, rawFormat string) (*ExportDocument, error) {
	if !isSuperAdmin(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only super admins can export proposals")
	}
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Validation(err, "unsupported export format")
	}

	filter := models.EventFilter{SortBy: "createdAt", SortOrder: "desc", PageSize: exportPageSize}
	if status != "" {
		filter.Statuses = []models.EventStatus{status}
	}
	var events []models.Event
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.events.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load events for export")
		}
		events = append(events, batch...)
		if len(batch) == 0 || len(events) >= total {
			break
		}
	}

	title := "Event proposals"
	if status != "" {
		title += " (" + string(status) + ")"
	}
	table := export.Table{
		Title:   title,
		Headers: []string{"Title", "Status", "Type", "Club", "Start", "Capacity", "Registered", "Submitted"},
	}
	for _, e := range events {
		table.AddRow(e.Title, string(e.Status), string(e.Type), e.ClubID, formatOptionalDate(e.StartDate),
			strconv.Itoa(e.MaxParticipants), strconv.Itoa(e.CurrentParticipants), e.CreatedAt.UTC().Format("2006-01-02"))
	}
	return s.render(format, "event-proposals", table)
}

// IdeaLeaderboard ranks an event's ideas by net score, then by total votes.
func (s *ExportService) IdeaLeaderboard(ctx context.Context, actor *models.JWTClaims, eventID, rawFormat string) (*ExportDocument, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Validation(err, "unsupported export format")
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, lookupError(err, "event")
	}
	if err := s.authorize(ctx, actor, event); err != nil {
		return nil, err
	}

	filter := models.IdeaFilter{EventID: eventID, SortBy: "votes", SortOrder: "desc", PageSize: exportPageSize}
	var ideas []models.Idea
	for page := 1; ; page++ {
		filter.Page = page
		batch, total, err := s.ideas.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load ideas for export")
		}
		ideas = append(ideas, batch...)
		if len(batch) == 0 || len(ideas) >= total {
			break
		}
	}
	sort.SliceStable(ideas, func(i, j int) bool {
		if ideas[i].VoteCount != ideas[j].VoteCount {
			return ideas[i].VoteCount > ideas[j].VoteCount
		}
		return ideas[i].Upvotes+ideas[i].Downvotes > ideas[j].Upvotes+ideas[j].Downvotes
	})

	table := export.Table{
		Title:   "Idea leaderboard - " + event.Title,
		Headers: []string{"Rank", "Title", "Student", "Status", "Upvotes", "Downvotes", "Net", "Comments"},
	}
	for i, idea := range ideas {
		table.AddRow(strconv.Itoa(i+1), idea.Title, idea.StudentName, string(idea.Status),
			strconv.Itoa(idea.Upvotes), strconv.Itoa(idea.Downvotes), strconv.Itoa(idea.VoteCount), strconv.Itoa(idea.CommentCount))
	}
	return s.render(format, "idea-leaderboard-"+slug(event.Title), table)
}

func (s *ExportService) authorize(ctx context.Context, actor *models.JWTClaims, event *models.Event) error {
	if isSuperAdmin(actor) || event.OrganizerID == actorID(actor) {
		return nil
	}
	club, err := s.clubs.FindByID(ctx, event.ClubID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Internal(err, "failed to load club")
	}
	if club == nil || !club.AdministeredBy(actorID(actor)) {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to export this event")
	}
	return nil
}

func (s *ExportService) render(format export.Format, base string, table export.Table) (*ExportDocument, error) {
	renderer := export.For(format)
	data, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render export")
	}
	name := fmt.Sprintf("%s-%s.%s", base, s.now().UTC().Format("20060102"), renderer.Extension())
	s.logger.Info("export rendered", zap.String("file", name), zap.Int("rows", len(table.Rows)))
	return &ExportDocument{FileName: name, ContentType: renderer.ContentType(), Data: data}, nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func slug(value string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
