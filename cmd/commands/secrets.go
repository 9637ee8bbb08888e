package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/secrets"
)

// NewSecretsCommand returns the secrets subcommand.
func NewSecretsCommand() *cli.Command {
	return &cli.Command{
		Name:  "secrets",
		Usage: "Manage encrypted secrets",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Create the age key if it does not exist",
				Action: runSecretsInit,
			},
			{
				Name:      "set",
				Usage:     "Store a secret (value read from stdin when omitted)",
				ArgsUsage: "<name> [value]",
				Action:    runSecretsSet,
			},
			{
				Name:      "get",
				Usage:     "Print a decrypted secret",
				ArgsUsage: "<name>",
				Action:    runSecretsGet,
			},
			{
				Name:   "list",
				Usage:  "List stored secret names",
				Action: runSecretsList,
			},
			{
				Name:      "rm",
				Usage:     "Delete a secret",
				ArgsUsage: "<name>",
				Action:    runSecretsRemove,
			},
		},
		DefaultCommand: "list",
	}
}

func openVault() (*secrets.Vault, error) {
	return secrets.OpenVault(config.SecretsPath(), config.AgeKeyPath())
}

func runSecretsInit(_ context.Context, _ *cli.Command) error {
	publicKey, err := secrets.GenerateIdentity(config.AgeKeyPath())
	if err != nil {
		return err
	}
	fmt.Printf("Key ready at %s\n", config.AgeKeyPath())
	fmt.Printf("Public key: %s\n", publicKey)
	return nil
}

func runSecretsSet(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: pai secrets set <name> [value]")
	}

	value := cmd.Args().Get(1)
	if value == "" {
		fmt.Fprint(os.Stderr, "Value: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read value: %w", err)
		}
		value = strings.TrimRight(line, "\r\n")
	}
	if value == "" {
		return fmt.Errorf("empty value")
	}

	vault, err := openVault()
	if err != nil {
		return err
	}
	if err := vault.Set(name, value); err != nil {
		return err
	}
	fmt.Printf("Stored %s\n", name)
	return nil
}

func runSecretsGet(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: pai secrets get <name>")
	}

	vault, err := openVault()
	if err != nil {
		return err
	}
	value, err := vault.Get(name)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func runSecretsList(_ context.Context, _ *cli.Command) error {
	vault, err := openVault()
	if err != nil {
		return err
	}
	names, err := vault.List()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println("No secrets stored.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runSecretsRemove(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: pai secrets rm <name>")
	}

	vault, err := openVault()
	if err != nil {
		return err
	}
	if err := vault.Delete(name); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", name)
	return nil
}
