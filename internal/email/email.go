package email

import (
	"fmt"
	"log"
)

// SendEmail logs the outgoing email instead of calling a provider. Swapping
// in a real sender only touches this function.
func SendEmail(to string, subject string, body string) error {
	log.Println("====================================================")
	log.Printf("--- OUTGOING EMAIL ---")
	log.Printf("To: %s", to)
	log.Printf("Subject: %s", subject)
	log.Println("--- Body ---")
	log.Println(body)
	log.Println("====================================================")

	return nil
}

// SendActivationEmail mails the account activation link to a new user.
func SendActivationEmail(to string, baseURL string, userID string, activationKey string) error {
	subject := "Activate your Rizana account"

	body := fmt.Sprintf(
		"Welcome to Rizana!\n\nActivate your account by opening the link below:\n\n%s/v1/users/activate?user_id=%s&activation_key=%s\n",
		baseURL, userID, activationKey,
	)

	return SendEmail(to, subject, body)
}
