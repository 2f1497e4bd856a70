package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"nimbusdrive/models"
	"nimbusdrive/repository"
)

// UploadTicket is the response of the first upload phase: a provisional
// file record plus the endpoint the client PUTs the bytes to. The server
// proxies the bytes into blob storage, which has no presigned uploads.
type UploadTicket struct {
	FileID    primitive.ObjectID `json:"fileId"`
	UploadURL string             `json:"uploadUrl"`
}

// uploadPath is where UploadTicket.UploadURL points.
func uploadPath(fileID primitive.ObjectID) string {
	return fmt.Sprintf("/api/files/%s/blob", fileID.Hex())
}

// FileService owns the file side of the node store, including the
// two-phase upload. Quota is reserved at confirmation, not at URL issuance,
// so abandoned uploads never charge the account.
type FileService struct {
	nodes       repository.NodeStore
	quota       *QuotaService
	folders     *FolderService
	blobs       BlobStore
	locks       *TreeLocker
	maxFileSize int64
	logger      *zap.SugaredLogger
}

func NewFileService(nodes repository.NodeStore, quota *QuotaService, folders *FolderService, blobs BlobStore, locks *TreeLocker, maxFileSize int64, logger *zap.SugaredLogger) *FileService {
	return &FileService{
		nodes:       nodes,
		quota:       quota,
		folders:     folders,
		blobs:       blobs,
		locks:       locks,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// RequestUpload registers a provisional file and returns the upload
// endpoint for its bytes. The file is invisible to every listing and holds
// no quota until ConfirmUpload.
func (s *FileService) RequestUpload(ctx context.Context, owner primitive.ObjectID, fileName string, fileSize int64, parentID *primitive.ObjectID) (*UploadTicket, error) {
	fileName = strings.TrimSpace(fileName)
	if err := validateNodeName(fileName); err != nil {
		return nil, err
	}
	if fileSize < 0 {
		return nil, fmt.Errorf("%w: file size must be non-negative", ErrValidation)
	}
	if s.maxFileSize > 0 && fileSize > s.maxFileSize {
		return nil, fmt.Errorf("%w: file size %d exceeds maximum %d", ErrValidation, fileSize, s.maxFileSize)
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	if parentID != nil {
		if _, err := s.folders.liveFolder(ctx, owner, *parentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	file := &models.File{
		ID:         primitive.NewObjectID(),
		Name:       fileName,
		ParentID:   parentID,
		OwnerID:    owner,
		Size:       fileSize,
		MimeType:   mimeTypeFor(fileName),
		StorageKey: fmt.Sprintf("users/%s/%s", owner.Hex(), uuid.NewString()),
		Status:     models.FileStatusProvisional,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.nodes.CreateFile(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Infow("upload registered", "file", file.ID.Hex(), "owner", owner.Hex(), "size", fileSize)
	return &UploadTicket{FileID: file.ID, UploadURL: uploadPath(file.ID)}, nil
}

// UploadBlob streams the uploaded bytes into the file's storage key. Valid
// for a provisional file between the two phases and for an active one after
// ReplaceContent issued a fresh ticket.
func (s *FileService) UploadBlob(ctx context.Context, owner, fileID primitive.ObjectID, r io.Reader) error {
	file, err := s.ownedFile(ctx, owner, fileID)
	if err != nil {
		return err
	}
	if file.IsDeleted {
		return fmt.Errorf("%w: file %s", ErrNotFound, fileID.Hex())
	}
	return s.blobs.Upload(ctx, file.StorageKey, r)
}

// ConfirmUpload activates a provisional file, reserving its quota in the
// same critical section. A failed reservation aborts: the file stays
// provisional and no usage is charged.
func (s *FileService) ConfirmUpload(ctx context.Context, owner, fileID primitive.ObjectID) (*models.File, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	file, err := s.ownedFile(ctx, owner, fileID)
	if err != nil {
		return nil, err
	}
	if file.Status != models.FileStatusProvisional {
		return nil, fmt.Errorf("%w: file %s is already confirmed", ErrInvalidState, fileID.Hex())
	}
	// The parent was live at RequestUpload; it may have been trashed since.
	// Confirming under a trashed folder would plant an active file inside a
	// deleted subtree.
	if file.ParentID != nil {
		if _, err := s.folders.liveFolder(ctx, owner, *file.ParentID); err != nil {
			return nil, err
		}
	}

	if _, err := s.quota.Reserve(ctx, owner, file.Size); err != nil {
		return nil, err
	}

	file.Status = models.FileStatusActive
	file.UpdatedAt = time.Now().UTC()
	if err := s.nodes.UpdateFile(ctx, file); err != nil {
		// Undo the reservation so the ledger cannot drift from the tree.
		if releaseErr := s.quota.Release(ctx, owner, file.Size); releaseErr != nil {
			s.logger.Errorw("failed to roll back quota reservation",
				"file", fileID.Hex(), "error", releaseErr)
		}
		return nil, err
	}

	if file.ParentID != nil {
		if err := s.folders.adjustItemCount(ctx, *file.ParentID, 1); err != nil {
			return nil, err
		}
	}

	s.logger.Infow("upload confirmed", "file", file.ID.Hex(), "owner", owner.Hex(), "size", file.Size)
	return file, nil
}

// Get returns an active, non-deleted file owned by the account.
func (s *FileService) Get(ctx context.Context, owner, fileID primitive.ObjectID) (*models.File, error) {
	return s.liveFile(ctx, owner, fileID)
}

// Rename updates the display name and refreshes the mime type when the
// extension changes.
func (s *FileService) Rename(ctx context.Context, owner, fileID primitive.ObjectID, name string) (*models.File, error) {
	name = strings.TrimSpace(name)
	if err := validateNodeName(name); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	file, err := s.liveFile(ctx, owner, fileID)
	if err != nil {
		return nil, err
	}
	file.Name = name
	file.MimeType = mimeTypeFor(name)
	file.UpdatedAt = time.Now().UTC()
	if err := s.nodes.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	return file, nil
}

// Move re-parents the file. Files have no descendants, so only the target
// folder needs to be live.
func (s *FileService) Move(ctx context.Context, owner, fileID primitive.ObjectID, newParentID *primitive.ObjectID) (*models.File, error) {
	unlock := s.locks.Lock(owner)
	defer unlock()

	file, err := s.liveFile(ctx, owner, fileID)
	if err != nil {
		return nil, err
	}
	if newParentID != nil {
		if _, err := s.folders.liveFolder(ctx, owner, *newParentID); err != nil {
			return nil, err
		}
	}

	oldParentID := file.ParentID
	file.ParentID = newParentID
	file.UpdatedAt = time.Now().UTC()
	if err := s.nodes.UpdateFile(ctx, file); err != nil {
		return nil, err
	}
	if err := s.folders.shiftItemCounts(ctx, oldParentID, newParentID); err != nil {
		return nil, err
	}
	return file, nil
}

// ReplaceContent swaps the file's bytes for a new blob, renegotiating the
// quota by the size difference atomically with the metadata update.
func (s *FileService) ReplaceContent(ctx context.Context, owner, fileID primitive.ObjectID, newSize int64) (*UploadTicket, error) {
	if newSize < 0 {
		return nil, fmt.Errorf("%w: file size must be non-negative", ErrValidation)
	}
	if s.maxFileSize > 0 && newSize > s.maxFileSize {
		return nil, fmt.Errorf("%w: file size %d exceeds maximum %d", ErrValidation, newSize, s.maxFileSize)
	}

	unlock := s.locks.Lock(owner)
	defer unlock()

	file, err := s.liveFile(ctx, owner, fileID)
	if err != nil {
		return nil, err
	}

	delta := newSize - file.Size
	if delta > 0 {
		if _, err := s.quota.Reserve(ctx, owner, delta); err != nil {
			return nil, err
		}
	} else if delta < 0 {
		if err := s.quota.Release(ctx, owner, -delta); err != nil {
			return nil, err
		}
	}

	oldKey := file.StorageKey
	file.StorageKey = fmt.Sprintf("users/%s/%s", owner.Hex(), uuid.NewString())
	file.Size = newSize
	file.UpdatedAt = time.Now().UTC()

	if err := s.nodes.UpdateFile(ctx, file); err != nil {
		// Put the ledger back; the old blob and metadata are untouched.
		if delta > 0 {
			if releaseErr := s.quota.Release(ctx, owner, delta); releaseErr != nil {
				s.logger.Errorw("failed to roll back quota reservation",
					"file", fileID.Hex(), "error", releaseErr)
			}
		} else if delta < 0 {
			if _, reserveErr := s.quota.Reserve(ctx, owner, -delta); reserveErr != nil {
				s.logger.Errorw("failed to roll back quota release",
					"file", fileID.Hex(), "error", reserveErr)
			}
		}
		return nil, err
	}

	if deleteErr := s.blobs.Delete(ctx, oldKey); deleteErr != nil {
		s.logger.Warnw("failed to delete replaced blob", "key", oldKey, "error", deleteErr)
	}
	return &UploadTicket{FileID: file.ID, UploadURL: uploadPath(file.ID)}, nil
}

// DownloadURL returns a signed URL for the file's blob.
func (s *FileService) DownloadURL(ctx context.Context, owner, fileID primitive.ObjectID) (string, error) {
	file, err := s.liveFile(ctx, owner, fileID)
	if err != nil {
		return "", err
	}
	return s.blobs.DownloadURL(ctx, file.StorageKey)
}

func (s *FileService) ownedFile(ctx context.Context, owner, fileID primitive.ObjectID) (*models.File, error) {
	file, err := s.nodes.File(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID.Hex())
		}
		return nil, err
	}
	if file.OwnerID != owner {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID.Hex())
	}
	return file, nil
}

func (s *FileService) liveFile(ctx context.Context, owner, fileID primitive.ObjectID) (*models.File, error) {
	file, err := s.ownedFile(ctx, owner, fileID)
	if err != nil {
		return nil, err
	}
	if file.IsDeleted || file.Status != models.FileStatusActive {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, fileID.Hex())
	}
	return file, nil
}

func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".zip":
		return "application/zip"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
