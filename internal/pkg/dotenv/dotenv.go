// Package dotenv подгружает переменные окружения из файлов для локального запуска.
package dotenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Load читает файлы по порядку, отсутствующие пропускает. Переменные, уже заданные
// в окружении процесса, не перезаписываются; из двух файлов побеждает более ранний.
func Load(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}
