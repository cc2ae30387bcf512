package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/iudanet/passvault/internal/client/addresses"
	"github.com/iudanet/passvault/internal/client/api"
	"github.com/iudanet/passvault/internal/client/assetlinks"
	"github.com/iudanet/passvault/internal/client/auth"
	"github.com/iudanet/passvault/internal/client/details"
	"github.com/iudanet/passvault/internal/client/items"
	"github.com/iudanet/passvault/internal/client/plans"
	"github.com/iudanet/passvault/internal/client/securelinks"
	"github.com/iudanet/passvault/internal/client/sharekeys"
	"github.com/iudanet/passvault/internal/client/shares"
	"github.com/iudanet/passvault/internal/client/storage"
	"github.com/iudanet/passvault/internal/client/syncer"
	"github.com/iudanet/passvault/internal/client/syncstatus"
	"github.com/iudanet/passvault/internal/crypto"
	"github.com/iudanet/passvault/internal/validation"
)

// Passwords - источники master password в порядке приоритета
type Passwords struct {
	FromFile string
	FromArgs string
}

// Cli связывает все клиентские сервисы для выполнения команд
type Cli struct {
	logger    *slog.Logger
	apiClient *api.Client
	sessions  storage.SessionStorage
	cache     storage.CacheStorage
	passwords Passwords

	// Заполняется после Authenticate
	provider   *crypto.Provider
	userKey    *crypto.EncryptionKey
	userID     string
	username   string
	shares     shares.Repository
	items      items.Repository
	links      securelinks.Repository
	details    *details.Handler
	plans      *plans.Service
	syncWorker *syncer.Worker
	status     syncstatus.Repository
	assets     *assetlinks.Service
}

// New создает CLI поверх открытых хранилищ и API клиента
func New(logger *slog.Logger, apiClient *api.Client, sessions storage.SessionStorage, cache storage.CacheStorage, passwords Passwords) *Cli {
	return &Cli{
		logger:    logger,
		apiClient: apiClient,
		sessions:  sessions,
		cache:     cache,
		passwords: passwords,
	}
}

// Close зачищает ключевой материал сессии
func (c *Cli) Close() {
	if c.userKey != nil {
		c.userKey.Clear()
	}
}

// Authenticate восстанавливает сессию: читает master password, деривирует
// ключи, расшифровывает сохранённые токены и собирает репозитории.
func (c *Cli) Authenticate(ctx context.Context) error {
	meta, err := c.sessions.GetSession(ctx)
	if err != nil {
		if err == storage.ErrSessionNotFound {
			return fmt.Errorf("not authenticated, run 'passvault login' first")
		}
		return fmt.Errorf("failed to read session: %w", err)
	}

	password, err := c.getMasterPassword()
	if err != nil {
		return fmt.Errorf("failed to get master password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}

	keys, err := crypto.DeriveKeysFromBase64Salt(password, meta.Username, meta.PublicSalt)
	if err != nil {
		return fmt.Errorf("failed to derive keys: %w", err)
	}
	c.userKey = keys.UserKey
	c.provider = crypto.NewProvider(c.userKey)

	sessionStore := auth.NewSessionStore(c.sessions, c.provider)
	session, err := sessionStore.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to decrypt session (wrong master password?): %w", err)
	}
	if session.ExpiresAt <= time.Now().Unix() {
		return fmt.Errorf("session expired, run 'passvault login' again")
	}

	c.userID = session.UserID
	c.username = session.Username
	c.apiClient.SetAccessToken(session.AccessToken)

	c.buildServices()
	return nil
}

// buildServices собирает граф репозиториев над провайдером и кэшем
func (c *Cli) buildServices() {
	addrSource := addresses.NewKeySource(c.apiClient, c.logger)
	keyRepo := sharekeys.NewRepository(c.apiClient, c.cache, addrSource, c.provider, c.logger)

	c.shares = shares.NewRepository(c.apiClient, c.cache, keyRepo, c.provider, c.logger)
	c.items = items.NewRepository(c.apiClient, c.cache, keyRepo, c.provider, c.logger)
	c.links = securelinks.NewRepository(c.apiClient, c.cache, keyRepo, c.provider, c.logger)
	c.details = details.NewHandler(c.items, c.provider)
	c.plans = plans.NewService(c.apiClient)
	c.status = syncstatus.NewRepository()
	c.syncWorker = syncer.NewWorker(c.items, c.shares, c.status, c.logger)
	c.assets = assetlinks.NewService(c.apiClient, c.cache, c.logger)
}

// getMasterPassword получает master password из источников по приоритету:
// 1. Переменная окружения PASSVAULT_MASTER_PASSWORD
// 2. Файл из --master-password-file
// 3. Параметр --master-password
// 4. Интерактивный ввод
func (c *Cli) getMasterPassword() (string, error) {
	if envPassword := os.Getenv("PASSVAULT_MASTER_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	if c.passwords.FromFile != "" {
		content, err := os.ReadFile(c.passwords.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		password := strings.TrimSpace(string(content))
		if password == "" {
			return "", fmt.Errorf("password file is empty")
		}
		return password, nil
	}

	if c.passwords.FromArgs != "" {
		return c.passwords.FromArgs, nil
	}

	password, err := readPassword("Master password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

// PrintUsage выводит справку по командам
func PrintUsage() {
	fmt.Println("PassVault Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  passvault [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version                    Show version information")
	fmt.Println("  --server URL                 Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH                    Path to local encrypted cache (default: passvault-cache.db)")
	fmt.Println("  --session-db PATH            Path to session database (default: passvault-session.db)")
	fmt.Println("  --master-password PASSWORD   Master password (not recommended, use env var or file)")
	fmt.Println("  --master-password-file PATH  Path to file containing master password")
	fmt.Println()
	fmt.Println("Master Password Priority (highest to lowest):")
	fmt.Println("  1. PASSVAULT_MASTER_PASSWORD environment variable")
	fmt.Println("  2. --master-password-file (file path)")
	fmt.Println("  3. --master-password (command line)")
	fmt.Println("  4. Interactive prompt (fallback)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  register                      Register new user")
	fmt.Println("  login                         Login to server")
	fmt.Println("  logout                        Logout and delete session")
	fmt.Println("  status                        Show authentication status")
	fmt.Println("  vault create <name> [desc]    Create a new vault")
	fmt.Println("  vault list                    List vaults")
	fmt.Println("  vault select <share-id>       Select the current vault")
	fmt.Println("  vault delete <share-id>       Delete a vault")
	fmt.Println("  item add <category>           Add item to the selected vault (login, note, alias, identity, card)")
	fmt.Println("  item list                     List items of the selected vault")
	fmt.Println("  item get <item-id>            Show item details")
	fmt.Println("  item trash <item-id>          Move item to trash")
	fmt.Println("  item untrash <item-id>        Restore item from trash")
	fmt.Println("  item delete <item-id>         Delete item permanently")
	fmt.Println("  link create <item-id>         Create a secure link for an item")
	fmt.Println("  link list                     List secure links")
	fmt.Println("  suggest <host>                Suggest logins and apps for a host")
	fmt.Println("  sync                          Synchronize all vaults and items")
	fmt.Println("  plan                          Show current subscription plan")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  passvault register")
	fmt.Println("  passvault login")
	fmt.Println("  passvault vault create Personal \"My personal vault\"")
	fmt.Println("  passvault item add login")
	fmt.Println("  export PASSVAULT_MASTER_PASSWORD='mySecretPassword123'")
	fmt.Println("  passvault sync")
	fmt.Println("  passvault --server https://example.com login")
}

// readInput читает строку из stdin
func readInput(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// readPassword читает пароль без отображения на экране
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Переход на новую строку после ввода пароля
	if err != nil {
		return "", err
	}
	return string(passwordBytes), nil
}
