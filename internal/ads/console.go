package ads

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ConsoleSDK stands in for an ad network on a terminal. Rewarded ads ask
// the user to confirm they watched; AutoGrant skips the prompt.
type ConsoleSDK struct {
	In        io.Reader
	Out       io.Writer
	AutoGrant bool

	once    sync.Once
	scanner *bufio.Scanner
	mu      sync.Mutex
}

// LoadRewarded implements SDK.
func (c *ConsoleSDK) LoadRewarded(ctx context.Context, unitID string) error {
	return ctx.Err()
}

// LoadAppOpen implements SDK.
func (c *ConsoleSDK) LoadAppOpen(ctx context.Context, unitID string) error {
	return ctx.Err()
}

// ShowRewarded implements SDK.
func (c *ConsoleSDK) ShowRewarded(ctx context.Context, unitID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.printf("📺 [광고] 리워드 광고 (%s)\n", unitID)
	if c.AutoGrant {
		c.printf("✅ 보상이 지급되었습니다\n")
		return true, nil
	}
	if c.In == nil {
		return false, nil
	}

	c.printf("광고를 끝까지 시청하셨나요? [y/N]: ")
	c.once.Do(func() { c.scanner = bufio.NewScanner(c.In) })
	if !c.scanner.Scan() {
		return false, c.scanner.Err()
	}
	switch strings.ToLower(strings.TrimSpace(c.scanner.Text())) {
	case "y", "yes", "예", "네":
		return true, nil
	}
	return false, nil
}

// ShowAppOpen implements SDK.
func (c *ConsoleSDK) ShowAppOpen(ctx context.Context, unitID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("📺 [광고] 앱 오프닝 광고 (%s)\n", unitID)
	return nil
}

func (c *ConsoleSDK) printf(format string, args ...any) {
	if c.Out != nil {
		_, _ = fmt.Fprintf(c.Out, format, args...)
	}
}
