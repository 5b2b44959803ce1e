package tui

// User-facing strings. The product only ships in French.
const (
	textTitle          = "Assistant GLPI"
	textLoginPrompt    = "User AD ID : "
	textLoginHelp      = "Entrez votre identifiant numérique puis Entrée. ctrl+c pour quitter."
	textLoginInvalid   = "Veuillez entrer un User AD ID valide."
	textLoginOK        = "Connexion réussie !"
	textLogoutOK       = "Déconnexion réussie"
	textNewChat        = "Nouvelle conversation démarrée"
	textInputHolder    = "Posez votre question…"
	textTyping         = "L'assistant écrit…"
	textServerError    = "Erreur de connexion au serveur"
	textBusy           = "Veuillez attendre la réponse en cours."
	textFeedbackError  = "Erreur lors de l'envoi du feedback"
	textFeedbackGood   = "Merci ! Votre retour positif a été enregistré 😊"
	textFeedbackBad    = "Merci pour votre retour. Nous allons nous améliorer !"
	textFeedbackAsk    = "Cette réponse vous a-t-elle aidé ?"
	textFeedbackKeys   = "ctrl+t 👍  ctrl+b 👎"
	textFeedbackThanks = "✓ Merci pour votre retour !"
	textFeedbackRetry  = "Échec de l'envoi du retour, réessayez."
	textSources        = "Sources GLPI"
	textWelcomeTitle   = "Bonjour ! Je suis votre assistant GLPI"
	textWelcomeBody    = "Je peux vous aider avec vos questions concernant le support informatique, les tickets GLPI et la documentation technique."
	textChatHelp       = "Entrée envoyer · tab choisir une réponse · ctrl+n nouvelle conversation · ctrl+l déconnexion · ctrl+c quitter"
	textUserBadge      = "Utilisateur #%d"
)
