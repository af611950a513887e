package services

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	dto "task-manager.com/task-manager/internal/data_models"
	repository "task-manager.com/task-manager/internal/repositories"
	"task-manager.com/task-manager/internal/storage"
	"task-manager.com/task-manager/pkg/constants"
	model "task-manager.com/task-manager/pkg/models"
)

type TaskService struct {
	repo  *repository.TaskRepository
	files storage.FileStore
}

func NewTaskService(repo *repository.TaskRepository, files storage.FileStore) *TaskService {
	return &TaskService{
		repo:  repo,
		files: files,
	}
}

func (s *TaskService) ListTasks(ctx context.Context) ([]model.Task, error) {
	return s.repo.List(ctx)
}

func (s *TaskService) GetTask(ctx context.Context, id uint) (*model.Task, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateTask expects a request that already passed validation.
func (s *TaskService) CreateTask(ctx context.Context, req dto.TaskRequest) (*model.Task, error) {
	task := &model.Task{
		Title:       value(req.Title),
		Description: value(req.Description),
		Priority:    constants.Priority(strings.TrimSpace(value(req.Priority))),
		Type:        value(req.Type),
		Entity:      value(req.Entity),
		Staff:       value(req.Staff),
	}
	task.DueDate, _ = model.ParseDueDate(value(req.DueDate))

	relPath, err := s.storeUpload(ctx, req.Upload)
	if err != nil {
		return nil, err
	}
	if relPath != "" {
		url := s.files.URL(relPath)
		task.File = &url
	}

	if err := s.repo.Create(ctx, task); err != nil {
		s.discard(ctx, relPath)
		return nil, err
	}

	return task, nil
}

// UpdateTask applies the supplied fields only. A replacement upload is
// written before the row and the superseded file is removed after commit.
func (s *TaskService) UpdateTask(ctx context.Context, id uint, req dto.TaskRequest) (*model.Task, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	setIfPresent(changes, "title", req.Title)
	setIfPresent(changes, "description", req.Description)
	setIfPresent(changes, "type", req.Type)
	setIfPresent(changes, "entity", req.Entity)
	setIfPresent(changes, "staff", req.Staff)
	if req.Priority != nil {
		changes["priority"] = constants.Priority(strings.TrimSpace(*req.Priority))
	}
	if req.DueDate != nil {
		changes["duedate"], _ = model.ParseDueDate(*req.DueDate)
	}

	relPath, err := s.storeUpload(ctx, req.Upload)
	if err != nil {
		return nil, err
	}
	if relPath != "" {
		changes["file"] = s.files.URL(relPath)
	}

	task, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		s.discard(ctx, relPath)
		return nil, err
	}

	if relPath != "" && current.HasFile() {
		if old, ok := s.files.PathFromURL(*current.File); ok && old != relPath {
			if err := s.files.Delete(ctx, old); err != nil {
				log.Printf("task %d: failed to remove superseded file %s: %v", id, old, err)
			}
		}
	}

	return task, nil
}

// DeleteTask moves the attachment into the trash before the row deletion
// commits. The trashed blob is purged once the commit succeeds and moved
// back if it fails, so a storage failure leaves the task in place and a
// failed commit keeps its file.
func (s *TaskService) DeleteTask(ctx context.Context, id uint) error {
	var original, trashed string

	err := s.repo.Delete(ctx, id, func(task *model.Task) error {
		if !task.HasFile() {
			return nil
		}
		relPath, ok := s.files.PathFromURL(*task.File)
		if !ok {
			log.Printf("task %d: file %s is not in local storage, skipping removal", id, *task.File)
			return nil
		}

		trash := path.Join(storage.TrashDir, relPath)
		if err := s.files.Move(ctx, relPath, trash); err != nil {
			return fmt.Errorf("remove attachment %s: %w", relPath, err)
		}
		original, trashed = relPath, trash
		return nil
	})

	if trashed == "" {
		return err
	}

	// The request context may be what failed the commit.
	cleanup := context.WithoutCancel(ctx)
	if err != nil {
		if rerr := s.files.Move(cleanup, trashed, original); rerr != nil {
			log.Printf("task %d: failed to restore attachment %s: %v", id, original, rerr)
		}
		return err
	}

	if derr := s.files.Delete(cleanup, trashed); derr != nil {
		log.Printf("task %d: failed to purge trashed attachment %s: %v", id, trashed, derr)
	}
	return nil
}

func (s *TaskService) storeUpload(ctx context.Context, upload *dto.Upload) (string, error) {
	if upload == nil {
		return "", nil
	}

	f, err := upload.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	relPath, err := s.files.Put(ctx, storage.TaskUploadsDir, upload.Filename, f)
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return relPath, nil
}

func (s *TaskService) discard(ctx context.Context, relPath string) {
	if relPath == "" {
		return
	}
	if err := s.files.Delete(ctx, relPath); err != nil {
		log.Printf("failed to remove orphaned upload %s: %v", relPath, err)
	}
}

func setIfPresent(changes map[string]interface{}, column string, v *string) {
	if v != nil {
		changes[column] = *v
	}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
