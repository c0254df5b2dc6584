package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"msgcenter/backend/internal/domain"
)

// Seed 开发环境初始数据
type Seed struct {
	Identities []domain.Identity       `json:"identities"`
	Portals    []domain.Portal         `json:"portals"`
	Messages   []domain.Message        `json:"messages"`
	Metadata   []domain.MetadataRecord `json:"metadata"`
}

// LoadSeedFile 从 JSON 文件读取初始数据并写入存储
func (s *Store) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	return s.ApplySeed(seed)
}

// ApplySeed 将初始数据写入存储
func (s *Store) ApplySeed(seed Seed) error {
	for i := range seed.Identities {
		identity := seed.Identities[i]
		if _, err := domain.ParseIdentityID(identity.ID); err != nil {
			return fmt.Errorf("seed identity %q: %w", identity.ID, err)
		}
		if !identity.Role.Valid() {
			identity.Role = domain.RoleRegular
		}
		if err := s.SaveIdentity(&identity); err != nil {
			return err
		}
	}
	for i := range seed.Portals {
		if err := s.SavePortal(&seed.Portals[i]); err != nil {
			return err
		}
	}
	for i := range seed.Messages {
		if err := s.SaveMessage(&seed.Messages[i]); err != nil {
			return err
		}
	}
	for _, rec := range seed.Metadata {
		if err := s.SaveMetadata(rec); err != nil {
			return err
		}
	}
	return nil
}
