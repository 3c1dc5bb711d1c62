package db

import (
	stderrors "errors"
	"log"

	"taskmanager/internal/domain/errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migration применяет все неприменённые миграции из migratePath.
func Migration(dbStr string, migratePath string) error {
	if dbStr == "" || migratePath == "" {
		return errors.ErrMigrationFailed
	}

	m, err := migrate.New("file://"+migratePath, dbStr)
	if err != nil {
		log.Println("[ERROR] Не удалось инициализировать миграции:", err)
		return err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Println("[ERROR] Ошибка закрытия источника миграций:", srcErr)
		}
		if dbErr != nil {
			log.Println("[ERROR] Ошибка закрытия соединения миграций:", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		log.Println("[ERROR] Не удалось применить миграции:", err)
		return err
	}
	return nil
}
