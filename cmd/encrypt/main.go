// Command encrypt шифрует токен Telegram-бота ключом ENCRYPTION_KEY.
// Результат кладется в TELEGRAM_BOT_TOKEN_ENC.
//
//	encrypt -genkey
//	echo -n "$TOKEN" | encrypt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/romanzzaa/liquidation-bot/internal/infrastructure/crypto"
)

func main() {
	genKey := flag.Bool("genkey", false, "print a new random ENCRYPTION_KEY and exit")
	flag.Parse()

	if *genKey {
		key, err := crypto.GenerateKey()
		if err != nil {
			log.Fatalf("Key generation failed: %v", err)
		}
		fmt.Println(key)
		return
	}

	encryptor, err := crypto.NewEncryptor(os.Getenv("ENCRYPTION_KEY"))
	if err != nil {
		log.Fatalf("Encryptor init failed: %v", err)
	}

	token := strings.Join(flag.Args(), " ")
	if token == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			log.Fatalf("Read token from stdin: %v", err)
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		log.Fatal("Token is empty")
	}

	ct, err := encryptor.Encrypt(token)
	if err != nil {
		log.Fatalf("Encrypt failed: %v", err)
	}
	fmt.Println(ct)
}
