package service

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

//go:embed rules/achievements.toml
var defaultAchievementRules []byte

var romanLevels = []string{"", "I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}

// AchievementLevel is one step of a rule.
type AchievementLevel struct {
	Threshold int `toml:"threshold"`
	Points    int `toml:"points"`
}

// AchievementRule maps a user activity counter to badge levels.
type AchievementRule struct {
	Type        models.AchievementType `toml:"type"`
	Name        string                 `toml:"name"`
	Description string                 `toml:"description"`
	Metric      string                 `toml:"metric"`
	Levels      []AchievementLevel     `toml:"levels"`
}

// AchievementRules is the decoded rules file.
type AchievementRules struct {
	Rules []AchievementRule `toml:"rule"`
}

// LoadAchievementRules reads the rules file at path, or the embedded defaults when path is empty.
func LoadAchievementRules(path string) (AchievementRules, error) {
	var reader io.Reader = bytes.NewReader(defaultAchievementRules)
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return AchievementRules{}, fmt.Errorf("open achievement rules: %w", err)
		}
		defer file.Close()
		reader = file
	}

	var rules AchievementRules
	if _, err := toml.NewDecoder(reader).Decode(&rules); err != nil {
		return AchievementRules{}, fmt.Errorf("decode achievement rules: %w", err)
	}
	if err := rules.validate(); err != nil {
		return AchievementRules{}, err
	}
	return rules, nil
}

func (r AchievementRules) validate() error {
	if len(r.Rules) == 0 {
		return fmt.Errorf("achievement rules: no rules defined")
	}
	for _, rule := range r.Rules {
		if _, ok := activityMetric(models.UserActivity{}, rule.Metric); !ok {
			return fmt.Errorf("achievement rule %s: unknown metric %q", rule.Type, rule.Metric)
		}
		if len(rule.Levels) == 0 || len(rule.Levels) >= len(romanLevels) {
			return fmt.Errorf("achievement rule %s: invalid level count %d", rule.Type, len(rule.Levels))
		}
		prev := 0
		for _, level := range rule.Levels {
			if level.Threshold <= prev {
				return fmt.Errorf("achievement rule %s: thresholds must increase", rule.Type)
			}
			prev = level.Threshold
		}
	}
	return nil
}

func activityMetric(a models.UserActivity, metric string) (int, bool) {
	switch metric {
	case "ideas_submitted":
		return a.IdeasSubmitted, true
	case "max_idea_upvotes":
		return a.MaxIdeaUpvotes, true
	case "votes_cast":
		return a.VotesCast, true
	case "comments_posted":
		return a.CommentsPosted, true
	case "ideas_implemented":
		return a.IdeasImplemented, true
	}
	return 0, false
}

type achievementRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Achievement, error)
	Award(ctx context.Context, a *models.Achievement) (bool, error)
	Points(ctx context.Context, userID string) (total, count int, err error)
	Activity(ctx context.Context, userID string) (*models.UserActivity, error)
}

// AchievementService evaluates rules against user activity and awards badges.
type AchievementService struct {
	repo     achievementRepository
	rules    AchievementRules
	notifier Notifier
	metrics  *MetricsService
	logger   *zap.Logger
}

func NewAchievementService(repo achievementRepository, rules AchievementRules, notifier Notifier, metrics *MetricsService, logger *zap.Logger) *AchievementService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AchievementService{repo: repo, rules: rules, notifier: notifier, metrics: metrics, logger: logger}
}

// Check awards every level the user now qualifies for and returns the new ones.
func (s *AchievementService) Check(ctx context.Context, userID string) ([]models.Achievement, error) {
	activity, err := s.repo.Activity(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load user activity")
	}

	awarded := []models.Achievement{}
	for _, rule := range s.rules.Rules {
		value, _ := activityMetric(*activity, rule.Metric)
		for i, level := range rule.Levels {
			if value < level.Threshold {
				break
			}
			achievement := &models.Achievement{
				UserID:      userID,
				Type:        rule.Type,
				Level:       i + 1,
				Title:       rule.title(i + 1),
				Description: rule.describe(level.Threshold),
				Points:      level.Points,
			}
			created, err := s.repo.Award(ctx, achievement)
			if err != nil {
				return awarded, appErrors.Internal(err, "failed to award achievement")
			}
			if !created {
				continue
			}
			awarded = append(awarded, *achievement)
			s.metrics.RecordAchievement(rule.Type)
			s.notifier.Notify(ctx, models.NotificationMessage{
				UserID:            userID,
				Title:             "Achievement unlocked",
				Message:           fmt.Sprintf("You earned %s (+%d points)", achievement.Title, achievement.Points),
				Type:              models.NotificationAchievement,
				RelatedEntityID:   achievement.ID,
				RelatedEntityType: "achievement",
			})
		}
	}
	if len(awarded) > 0 {
		s.logger.Info("achievements awarded", zap.String("user_id", userID), zap.Int("count", len(awarded)))
	}
	return awarded, nil
}

func (s *AchievementService) List(ctx context.Context, userID string) ([]models.Achievement, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list achievements")
	}
	if items == nil {
		items = []models.Achievement{}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].EarnedAt.After(items[j].EarnedAt) })
	return items, nil
}

func (s *AchievementService) Points(ctx context.Context, userID string) (*models.AchievementPoints, error) {
	total, count, err := s.repo.Points(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sum achievement points")
	}
	return &models.AchievementPoints{UserID: userID, TotalPoints: total, Achievements: count}, nil
}

func (r AchievementRule) title(level int) string {
	if len(r.Levels) == 1 {
		return r.Name
	}
	return r.Name + " " + romanLevels[level]
}

func (r AchievementRule) describe(threshold int) string {
	if strings.Contains(r.Description, "%d") {
		return fmt.Sprintf(r.Description, threshold)
	}
	return r.Description
}
