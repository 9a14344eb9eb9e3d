package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/noise-mobile-go/crypto"
	"github.com/opd-ai/noise-mobile-go/ffi"
	"github.com/opd-ai/noise-mobile-go/keystore"
)

func demoCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run an in-process handshake and message exchange through the boundary",
		Long: `Creates an initiator and a responder behind the boundary, drives the
three-message handshake to completion, then encrypts "hello" on one side
and decrypts it on the other, printing sizes and status codes at every
step. With --id, the initiator uses an identity from the key store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			initiator, err := createInitiator(id)
			if err != nil {
				return err
			}
			defer ffi.Destroy(initiator)

			responder := ffi.CreateResponder()
			if responder == 0 {
				return fmt.Errorf("failed to create responder session")
			}
			defer ffi.Destroy(responder)

			fmt.Printf("initiator handle %d, responder handle %d\n\n", initiator, responder)

			// XX: initiator writes messages 1 and 3, responder message 2.
			writer, reader := initiator, responder
			for round := 1; !ffi.IsHandshakeComplete(initiator) || !ffi.IsHandshakeComplete(responder); round++ {
				if round > 3 {
					return fmt.Errorf("handshake did not complete after 3 messages")
				}

				message := ffi.WriteMessage(writer, nil)
				if message == nil {
					return fmt.Errorf("handshake message %d write failed: %s", round, ffi.LastError(writer))
				}
				if payload := ffi.ReadMessage(reader, message); payload == nil {
					return fmt.Errorf("handshake message %d read failed: %s", round, ffi.LastError(reader))
				}
				fmt.Printf("handshake message %d: %d bytes (write status %d, read status %d)\n",
					round, len(message), ffi.LastError(writer), ffi.LastError(reader))

				writer, reader = reader, writer
			}
			fmt.Println("handshake complete on both sides")

			for _, side := range []struct {
				name   string
				handle ffi.Handle
			}{{"initiator", initiator}, {"responder", responder}} {
				remote := ffi.GetRemoteStatic(side.handle)
				if remote == nil {
					return fmt.Errorf("%s remote static unavailable: %s", side.name, ffi.LastError(side.handle))
				}
				fmt.Printf("%s sees peer static key %x...\n", side.name, remote[:8])
			}
			fmt.Println()

			plaintext := []byte("hello")
			ciphertext := ffi.Encrypt(initiator, plaintext)
			if ciphertext == nil {
				return fmt.Errorf("encrypt failed: %s", ffi.LastError(initiator))
			}
			fmt.Printf("encrypt %q: %d bytes -> %d bytes (status %d)\n",
				plaintext, len(plaintext), len(ciphertext), ffi.LastError(initiator))

			decrypted := ffi.Decrypt(responder, ciphertext)
			if decrypted == nil {
				return fmt.Errorf("decrypt failed: %s", ffi.LastError(responder))
			}
			fmt.Printf("decrypt: %d bytes -> %q (status %d)\n",
				len(ciphertext), decrypted, ffi.LastError(responder))

			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "use a stored identity for the initiator")
	return cmd
}

// createInitiator builds the initiator session, loading a static key
// from the key store when an identity name is given.
func createInitiator(id string) (ffi.Handle, error) {
	if id == "" {
		h := ffi.CreateInitiator()
		if h == 0 {
			return 0, fmt.Errorf("failed to create initiator session")
		}
		return h, nil
	}

	if passphrase == "" {
		return 0, fmt.Errorf("passphrase required to load identity %q (-p)", id)
	}
	store, err := keystore.NewFileKeyStore(storeDir, []byte(passphrase))
	if err != nil {
		return 0, err
	}
	defer store.Close()

	key, err := store.LoadIdentity(id)
	if err != nil {
		return 0, err
	}
	defer crypto.ZeroBytes(key)

	h := ffi.CreateInitiatorWithKey(key)
	if h == 0 {
		return 0, fmt.Errorf("failed to create initiator with identity %q", id)
	}
	return h, nil
}
