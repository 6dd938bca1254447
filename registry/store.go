package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BaSui01/fedsearch/types"
)

// nodeRecord 节点描述符的持久化形态。
// 只持久化不可变身份字段；可用性与时延属于健康监控器的运行时状态，不落盘。
type nodeRecord struct {
	ID           string `gorm:"primaryKey"`
	Name         string
	Endpoint     string `gorm:"not null"`
	Domain       string `gorm:"index;not null"`
	Capabilities string // 逗号分隔
	PrivacyTier  string `gorm:"not null"`
	RegisteredAt time.Time
}

func (nodeRecord) TableName() string { return "federated_nodes" }

// Store 基于嵌入式 SQLite 的节点描述符持久化存储。
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore 打开（必要时创建）节点存储并迁移表结构。
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open node store: %w", err)
	}

	if err := db.AutoMigrate(&nodeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate node store: %w", err)
	}

	return &Store{db: db, logger: logger.With(zap.String("component", "node_store"))}, nil
}

// Save 写入（或覆盖）一个节点描述符。
func (s *Store) Save(node *types.Node) error {
	rec := nodeRecord{
		ID:           node.ID,
		Name:         node.Name,
		Endpoint:     node.Endpoint,
		Domain:       node.Domain,
		Capabilities: strings.Join(node.Capabilities, ","),
		PrivacyTier:  string(node.PrivacyTier),
		RegisteredAt: node.RegisteredAt,
	}
	if err := s.db.Save(&rec).Error; err != nil {
		return types.NewError(types.ErrStoreFailure, "failed to save node").WithNode(node.ID).WithCause(err)
	}
	return nil
}

// Delete 删除一个持久化的节点描述符。
func (s *Store) Delete(id string) error {
	if err := s.db.Delete(&nodeRecord{}, "id = ?", id).Error; err != nil {
		return types.NewError(types.ErrStoreFailure, "failed to delete node").WithNode(id).WithCause(err)
	}
	return nil
}

// LoadAll 读出全部持久化节点。
func (s *Store) LoadAll() ([]*types.Node, error) {
	var recs []nodeRecord
	if err := s.db.Order("id").Find(&recs).Error; err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "failed to load nodes").WithCause(err)
	}

	nodes := make([]*types.Node, 0, len(recs))
	for _, rec := range recs {
		var caps []string
		if rec.Capabilities != "" {
			caps = strings.Split(rec.Capabilities, ",")
		}
		nodes = append(nodes, &types.Node{
			ID:           rec.ID,
			Name:         rec.Name,
			Endpoint:     rec.Endpoint,
			Domain:       rec.Domain,
			Capabilities: caps,
			PrivacyTier:  types.PrivacyTier(rec.PrivacyTier),
			RegisteredAt: rec.RegisteredAt,
		})
	}
	return nodes, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
