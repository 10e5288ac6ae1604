package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/providers/extract"
	"github.com/intervuehq/intervue/internal/providers/llm"
	pgrepo "github.com/intervuehq/intervue/internal/repositories/postgres"
	"github.com/intervuehq/intervue/internal/storage"
	"github.com/intervuehq/intervue/internal/utils"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
)

type ProfileService interface {
	GetMe(ctx context.Context, userID string) (*models.CandidateProfile, error)
	Update(ctx context.Context, p *models.CandidateProfile) error
	// UploadResume stores the file, extracts its text, and refreshes the
	// candidate profile that feeds question generation.
	UploadResume(ctx context.Context, userID, fileName, mimeType string, data []byte) (*models.ResumeFile, error)
}

type profileService struct {
	profiles pgrepo.ProfileRepository
	resumes  pgrepo.ResumeFileRepository
	uploader storage.Uploader
	extract  extract.Extractor
	embedder llm.Embedder
	log      *logrus.Logger
}

func NewProfileService(
	profiles pgrepo.ProfileRepository,
	resumes pgrepo.ResumeFileRepository,
	uploader storage.Uploader,
	ex extract.Extractor,
	embedder llm.Embedder,
	log *logrus.Logger,
) ProfileService {
	if log == nil {
		log = logrus.New()
	}
	return &profileService{
		profiles: profiles,
		resumes:  resumes,
		uploader: uploader,
		extract:  ex,
		embedder: embedder,
		log:      log,
	}
}

func (s *profileService) GetMe(ctx context.Context, userID string) (*models.CandidateProfile, error) {
	const op = "ProfileService.GetMe"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}
	return p, nil
}

func (s *profileService) Update(ctx context.Context, p *models.CandidateProfile) error {
	const op = "ProfileService.Update"

	if p == nil || p.UserID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "profile.user_id is required", nil)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to upsert profile", err)
	}
	return nil
}

func (s *profileService) UploadResume(ctx context.Context, userID, fileName, mimeType string, data []byte) (*models.ResumeFile, error) {
	const op = "ProfileService.UploadResume"

	if userID == "" || len(data) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and file content are required", nil)
	}
	if s.uploader == nil {
		return nil, utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}

	objectName := fmt.Sprintf("resumes/%s/%s-%s", userID, uuid.NewString(), fileName)
	storedPath, err := s.uploader.Upload(ctx, objectName, mimeType, bytes.NewReader(data))
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload file", err)
	}

	row := &models.ResumeFile{
		ID:       uuid.NewString(),
		UserID:   userID,
		FileName: fileName,
		FilePath: storedPath,
		FileSize: len(data),
		MimeType: mimeType,
		UploadAt: time.Now().UTC(),
	}
	if err := s.resumes.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist resume metadata", err)
	}

	// Text extraction and embedding are best effort: a resume the parser
	// chokes on still uploads, the profile just keeps its old text.
	text, err := s.extractText(ctx, data)
	if err != nil {
		s.log.WithError(err).WithField("user_id", userID).Warn("resume text extraction failed")
		return row, nil
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		profile = &models.CandidateProfile{UserID: userID}
	}
	profile.ResumeText = text
	profile.UpdatedAt = time.Now().UTC()

	if s.embedder != nil {
		if vec, eerr := s.embedder.Embed(ctx, text); eerr == nil {
			profile.ResumeEmbedding = pgvector.NewVector(vec)
		} else {
			s.log.WithError(eerr).Warn("resume embedding failed")
		}
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to update profile", err)
	}
	return row, nil
}

func (s *profileService) extractText(ctx context.Context, data []byte) (string, error) {
	if s.extract == nil {
		return "", errors.New("extractor is not configured")
	}
	var r io.ReaderAt = bytes.NewReader(data)
	return s.extract.ExtractText(ctx, r, int64(len(data)))
}
