package v1

import (
	"github.com/tinoosan/accountrix/internal/service/account"
	"github.com/tinoosan/accountrix/internal/storage/jsonfile"
	"github.com/tinoosan/accountrix/internal/storage/memory"
	"github.com/tinoosan/accountrix/internal/storage/postgres"
)

// Compile-time interface assertions for the store backends.
var (
	_ account.Store = (*jsonfile.Store)(nil)
	_ account.Store = (*memory.Store)(nil)
	_ account.Store = (*postgres.Store)(nil)
	_ ReadyChecker  = (*jsonfile.Store)(nil)
	_ ReadyChecker  = (*memory.Store)(nil)
	_ ReadyChecker  = (*postgres.Store)(nil)
)
