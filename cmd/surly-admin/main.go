// surly-admin manages API keys for the URL shortener: it creates accounts
// with named permission grants/denials, shows what is stored about an
// account, and deletes accounts. It talks to the same store as the server,
// so run it against the server's config file.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/surly-sh/surly/apikeys"
	"github.com/surly-sh/surly/datastore"
	"github.com/surly-sh/surly/storage"
	"github.com/surly-sh/surly/userconfig"
)

// stringList collects repeated flag values, so permissions can be granted
// one -grant at a time.
type stringList []string

func (l *stringList) String() string {
	return fmt.Sprint(*l)
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: surly-admin <command> [flags]

commands:
  create  -config PATH -name NAME [-grant OP]... [-deny OP]...
  info    -config PATH -account-id ID
  delete  -config PATH -account-id ID`)
	os.Exit(2)
}

func main() {
	// The admin tool is interactive; keep log output quiet unless
	// something breaks.
	log.Logger = log.Logger.Level(zerolog.WarnLevel)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "create":
		runCreate(os.Args[2:])
	case "info":
		runInfo(os.Args[2:])
	case "delete":
		runDelete(os.Args[2:])
	default:
		usage()
	}
}

// openKeys loads the config at path and returns an APIKeyManager over the
// same store the server uses, plus the store handle for closing.
func openKeys(path string) (*apikeys.Manager, storage.KeyValue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open the config file: %v", err)
	}
	defer f.Close()

	config, err := userconfig.Parse(f)
	if err != nil {
		return nil, nil, err
	}
	checked, err := config.CheckAndSetDefaults()
	if err != nil {
		return nil, nil, err
	}

	if checked.Storage.InMemory {
		return nil, nil, fmt.Errorf("an in-memory store holds nothing for this tool to manage")
	}

	kv, err := storage.NewBadgerKV(&storage.KVConfig{
		StorageDirPath: checked.Storage.DirPath,
	})
	if err != nil {
		return nil, nil, err
	}

	ds, err := datastore.New(kv, datastore.Config{
		TablePrefix: checked.Storage.TablePrefix,
	})
	if err != nil {
		kv.Close()
		return nil, nil, err
	}

	return apikeys.NewManager(ds.APIKeys), kv, nil
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "path to the service configuration")
	name := fs.String("name", "", "human-readable label for the new key")
	var grant, deny stringList
	fs.Var(&grant, "grant", "operation to grant (repeatable)")
	fs.Var(&deny, "deny", "operation to deny (repeatable)")
	fs.Parse(args)

	if *name == "" || len(grant) == 0 {
		fmt.Fprintln(os.Stderr, "create needs -name and at least one -grant")
		os.Exit(2)
	}

	keys, kv, err := openKeys(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("can't reach the store")
		os.Exit(1)
	}
	defer kv.Close()

	record, err := keys.Create(*name, grant, deny)
	if err != nil {
		log.Error().Err(err).Msg("can't create the API key")
		os.Exit(1)
	}

	printRecord(record)
}

func runInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "path to the service configuration")
	accountID := fs.String("account-id", "", "account to look up")
	fs.Parse(args)

	if *accountID == "" {
		fmt.Fprintln(os.Stderr, "info needs -account-id")
		os.Exit(2)
	}

	keys, kv, err := openKeys(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("can't reach the store")
		os.Exit(1)
	}
	defer kv.Close()

	record, ok, err := keys.Info(*accountID)
	if err != nil {
		log.Error().Err(err).Msg("can't look up the API key")
		os.Exit(1)
	}
	if !ok {
		fmt.Printf("API key %v not found\n", *accountID)
		os.Exit(1)
	}

	printRecord(record)
}

func runDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "path to the service configuration")
	accountID := fs.String("account-id", "", "account to delete")
	fs.Parse(args)

	if *accountID == "" {
		fmt.Fprintln(os.Stderr, "delete needs -account-id")
		os.Exit(2)
	}

	keys, kv, err := openKeys(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("can't reach the store")
		os.Exit(1)
	}
	defer kv.Close()

	existed, err := keys.Delete(*accountID)
	if err != nil {
		log.Error().Err(err).Msg("can't delete the API key")
		os.Exit(1)
	}
	if !existed {
		fmt.Printf("API key account %v not found\n", *accountID)
		os.Exit(1)
	}

	fmt.Printf("API key for account %v deleted\n", *accountID)
}

func printRecord(record apikeys.Record) {
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("can't render the record")
		os.Exit(1)
	}
	fmt.Println(string(out))
}
