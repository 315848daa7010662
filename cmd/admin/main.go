package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"jobboard/internal/config"
	"jobboard/internal/database"
)

// 目录种子文件格式，三类目录共用一个文件。
type seedFile struct {
	Skills []struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	} `json:"skills"`
	Categories []string `json:"categories"`
	Roles      []struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	} `json:"roles"`
}

func main() {
	var (
		seedPath = flag.String("seed", "", "目录种子 JSON 文件路径（必填）")
		dbHost   = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort   = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName   = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser   = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass   = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode  = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	path := strings.TrimSpace(*seedPath)
	if path == "" {
		log.Fatal("missing required flag: --seed")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}

	if err := db.AutoMigrate(&database.Skill{}, &database.Category{}, &database.DesiredJobRole{}); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	skills, categories, roles, err := seedCatalogs(db, seed)
	if err != nil {
		log.Fatalf("seed catalogs: %v", err)
	}

	fmt.Printf("目录预置完成：技能 %d 条，分类 %d 条，期望职位 %d 条（已存在的条目跳过）。\n",
		skills, categories, roles)
}

// seedCatalogs 按名字幂等写入三类目录。
// 已存在的名字靠唯一索引 + 冲突忽略跳过，重复执行安全。
func seedCatalogs(db *gorm.DB, seed seedFile) (int, int, int, error) {
	var skillCount, categoryCount, roleCount int

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, name := range seed.Categories {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			category := database.Category{CategoryName: name}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&category).Error; err != nil {
				return fmt.Errorf("seed category %q: %w", name, err)
			}
			categoryCount++
		}

		categoryIDs := make(map[string]string)
		var existing []database.Category
		if err := tx.Find(&existing).Error; err != nil {
			return err
		}
		for _, category := range existing {
			categoryIDs[category.CategoryName] = category.CategoryID
		}

		for _, s := range seed.Skills {
			name := strings.TrimSpace(s.Name)
			if name == "" {
				continue
			}
			skill := database.Skill{SkillName: name, Category: s.Category}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&skill).Error; err != nil {
				return fmt.Errorf("seed skill %q: %w", name, err)
			}
			skillCount++
		}

		for _, r := range seed.Roles {
			name := strings.TrimSpace(r.Name)
			if name == "" {
				continue
			}
			role := database.DesiredJobRole{RoleName: name}
			if id, ok := categoryIDs[r.Category]; ok {
				role.CategoryID = &id
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
				return fmt.Errorf("seed desired role %q: %w", name, err)
			}
			roleCount++
		}

		return nil
	})
	if err != nil {
		return 0, 0, 0, err
	}
	return skillCount, categoryCount, roleCount, nil
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if host == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if sslmode == "" {
		sslmode = "disable"
	}
	if name == "" || user == "" || password == "" {
		return config.DatabaseConfig{}, fmt.Errorf("database name, user and password are required")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
