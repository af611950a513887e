package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	model "task-manager.com/task-manager/pkg/models"
)

type TaskRepository struct {
	db *gorm.DB
}

var ErrTaskNotFound = errors.New("task not found")

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *TaskRepository) FindByID(ctx context.Context, id uint) (*model.Task, error) {
	return findByID(r.db.WithContext(ctx), id)
}

func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	tasks := []model.Task{}
	err := r.db.WithContext(ctx).Order("id asc").Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Task{}).Count(&n).Error
	return n, err
}

// Update writes only the given columns and returns the refreshed row.
func (r *TaskRepository) Update(ctx context.Context, id uint, changes map[string]interface{}) (*model.Task, error) {
	var updated *model.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findByID(tx, id)
		if err != nil {
			return err
		}

		if len(changes) > 0 {
			if err := tx.Model(task).Updates(changes).Error; err != nil {
				return err
			}
		}

		updated, err = findByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the row. beforeCommit runs after the row is deleted but
// before the transaction commits; an error from it rolls the deletion back.
func (r *TaskRepository) Delete(ctx context.Context, id uint, beforeCommit func(*model.Task) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := findByID(tx, id)
		if err != nil {
			return err
		}

		res := tx.Delete(&model.Task{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTaskNotFound
		}

		if beforeCommit != nil {
			return beforeCommit(task)
		}
		return nil
	})
}

func findByID(db *gorm.DB, id uint) (*model.Task, error) {
	var task model.Task
	err := db.First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}
