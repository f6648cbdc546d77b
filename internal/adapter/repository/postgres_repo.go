package repository

import (
	"context"
	"fmt"

	"repolens/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresRepo 实现了 port.ScoreStore 接口
type PostgresRepo struct {
	db *gorm.DB
}

// NewPostgresRepo 初始化数据库连接并自动迁移表结构
func NewPostgresRepo(dsn string) (*PostgresRepo, error) {
	// 1. 连接数据库
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 2. 自动迁移 (Auto Migrate)
	// runs 表 + repo_scores 表，字段变了也会自动补列
	err = db.AutoMigrate(&domain.Run{}, &domain.RepoScore{})
	if err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return &PostgresRepo{db: db}, nil
}

// CreateRun 新建一条批量分析记录，返回 run id
func (r *PostgresRepo) CreateRun(ctx context.Context, username string, repoCount int) (uint, error) {
	run := &domain.Run{
		Username:  username,
		RepoCount: repoCount,
	}
	result := r.db.WithContext(ctx).Create(run)
	if result.Error != nil {
		return 0, result.Error
	}
	return run.ID, nil
}

// SaveScore 保存单仓库评分行
func (r *PostgresRepo) SaveScore(ctx context.Context, score *domain.RepoScore) error {
	result := r.db.WithContext(ctx).Create(score)
	return result.Error
}

// RecentRuns 按时间倒序取最近的 N 次分析
func (r *PostgresRepo) RecentRuns(ctx context.Context, limit int) ([]*domain.Run, error) {
	var runs []*domain.Run
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// RunScores 某次分析的全部评分行，按总分倒序
func (r *PostgresRepo) RunScores(ctx context.Context, runID uint) ([]*domain.RepoScore, error) {
	var scores []*domain.RepoScore
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("total_score DESC").
		Find(&scores).Error
	return scores, err
}

// Search 根据关键词搜索历史评分
// 简单粗暴：LIKE 匹配仓库名和优缺点文本，优先展示高分仓库
func (r *PostgresRepo) Search(ctx context.Context, query string) ([]*domain.RepoScore, error) {
	var scores []*domain.RepoScore
	likeQuery := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("repo_name LIKE ? OR strengths LIKE ? OR weaknesses LIKE ?", likeQuery, likeQuery, likeQuery).
		Order("total_score DESC").
		Limit(10).
		Find(&scores).Error

	return scores, err
}
