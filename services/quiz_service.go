package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"quizio/errs"
	"quizio/logger"
	"quizio/models"
)

const (
	recentQuizLimit = 5
	maxCodeLength   = 10
	quizCacheTTL    = 10 * time.Minute
)

type QuizService struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewQuizService builds a quiz service. redis may be nil, in which case
// code lookups always hit the database.
func NewQuizService(db *gorm.DB, redis *redis.Client) *QuizService {
	return &QuizService{db: db, redis: redis}
}

type CreateQuizRequest struct {
	Title     string                  `json:"title" binding:"required"`
	Subject   string                  `json:"subject"`
	Code      string                  `json:"code" binding:"required"`
	StartTime time.Time               `json:"start_time" binding:"required"`
	EndTime   time.Time               `json:"end_time" binding:"required"`
	Questions []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type CreateQuestionRequest struct {
	Text    string   `json:"text" binding:"required"`
	Options []string `json:"options" binding:"required,min=2,dive,required"`
	Answer  string   `json:"answer" binding:"required"`
}

// CreateQuiz inserts a quiz and all of its questions in one transaction.
// The unique index on code is authoritative for conflicts; the lookup
// before the insert only exists to fail fast.
func (s *QuizService) CreateQuiz(creatorID string, req *CreateQuizRequest) (*models.Quiz, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" || len(code) > maxCodeLength {
		return nil, errs.New(errs.CodeInvalid, fmt.Sprintf("Quiz code must be 1-%d characters", maxCodeLength))
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, errs.New(errs.CodeInvalid, "End time must be after start time")
	}
	if err := validateQuestions(req.Questions); err != nil {
		return nil, err
	}

	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		subject = "general"
	}

	var existing models.Quiz
	err := s.db.Where("code = ?", code).First(&existing).Error
	if err == nil {
		return nil, errs.New(errs.CodeConflict, "Quiz code already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to create quiz")
	}

	quiz := models.Quiz{
		Title:     req.Title,
		Subject:   subject,
		Code:      code,
		CreatorID: creatorID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&quiz).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.New(errs.CodeConflict, "Quiz code already exists")
		}
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to create quiz")
	}

	for _, qReq := range req.Questions {
		question := models.Question{
			QuizID:  quiz.ID,
			Text:    qReq.Text,
			Options: models.StringList(qReq.Options),
			Answer:  qReq.Answer,
		}
		if err := tx.Create(&question).Error; err != nil {
			tx.Rollback()
			return nil, errs.Wrap(err, errs.CodeInternal, "Failed to create quiz")
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to create quiz")
	}

	created, err := s.fetchQuizByCode(code)
	if err != nil {
		return nil, err
	}
	s.cacheQuiz(created)
	return created, nil
}

// GetQuizByCode looks a quiz up by its shareable code, questions included.
// An unknown code returns nil, not an error.
func (s *QuizService) GetQuizByCode(code string) (*models.Quiz, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if quiz := s.cachedQuiz(code); quiz != nil {
		return quiz, nil
	}

	quiz, err := s.fetchQuizByCode(code)
	if err != nil {
		if errs.IsCode(err, errs.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	s.cacheQuiz(quiz)
	return quiz, nil
}

func (s *QuizService) GetQuizCount(userID string) (int64, error) {
	var count int64
	if err := s.db.Model(&models.Quiz{}).Where("creator_id = ?", userID).Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, errs.CodeInternal, "Failed to fetch quiz count")
	}
	return count, nil
}

// GetRecentQuizzes returns at most 5 quizzes by the creator, newest first.
func (s *QuizService) GetRecentQuizzes(userID string) ([]models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Where("creator_id = ?", userID).
		Order("created_at DESC").
		Limit(recentQuizLimit).
		Find(&quizzes).Error
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to fetch recent quizzes")
	}
	return quizzes, nil
}

// GetAllQuizzes returns the id/title/subject/startTime projection of every
// quiz by the creator.
func (s *QuizService) GetAllQuizzes(userID string) ([]models.QuizSummary, error) {
	var summaries []models.QuizSummary
	err := s.db.Model(&models.Quiz{}).
		Where("creator_id = ?", userID).
		Select("id", "title", "subject", "start_time").
		Find(&summaries).Error
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to fetch quizzes")
	}
	return summaries, nil
}

func (s *QuizService) fetchQuizByCode(code string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Where("code = ?", code).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.created_at")
		}).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.CodeNotFound, "Quiz not found")
		}
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to fetch quiz by code")
	}
	return &quiz, nil
}

func validateQuestions(questions []CreateQuestionRequest) error {
	for i, q := range questions {
		seen := make(map[string]bool, len(q.Options))
		answerFound := false
		for _, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return errs.New(errs.CodeInvalid, fmt.Sprintf("Question %d has an empty option", i+1))
			}
			if seen[opt] {
				return errs.New(errs.CodeInvalid, fmt.Sprintf("Question %d has duplicate options", i+1))
			}
			seen[opt] = true
			if opt == q.Answer {
				answerFound = true
			}
		}
		if !answerFound {
			return errs.New(errs.CodeInvalid, fmt.Sprintf("Question %d answer must be one of its options", i+1))
		}
	}
	return nil
}

func quizCacheKey(code string) string {
	return "quiz:code:" + code
}

func (s *QuizService) cacheQuiz(quiz *models.Quiz) {
	if s.redis == nil || quiz == nil {
		return
	}
	data, err := json.Marshal(quiz)
	if err != nil {
		return
	}
	if err := s.redis.Set(context.Background(), quizCacheKey(quiz.Code), data, quizCacheTTL).Err(); err != nil {
		logger.L().Warn("failed to cache quiz", zap.String("code", quiz.Code), zap.Error(err))
	}
}

func (s *QuizService) cachedQuiz(code string) *models.Quiz {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(context.Background(), quizCacheKey(code)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.L().Warn("quiz cache read failed", zap.String("code", code), zap.Error(err))
		}
		return nil
	}
	var quiz models.Quiz
	if err := json.Unmarshal([]byte(data), &quiz); err != nil {
		logger.L().Warn("quiz cache entry corrupt", zap.String("code", code), zap.Error(err))
		return nil
	}
	return &quiz
}
