// Package models holds the composite identity record assembled from the
// per-store lookups. Every leaf is optional: a nil pointer or empty slice
// means the store had nothing or could not be reached.
package models

// Basic is the primary-store row that also yields the contact id.
type Basic struct {
	Name       string `json:"nome"`
	CPF        string `json:"cpf"`
	BirthDate  string `json:"nascimento"`
	MotherName string `json:"nome_mae"`
	FatherName string `json:"nome_pai"`
	Sex        string `json:"sexo"`
	ContactID  int64  `json:"-"`
}

type Contacts struct {
	Emails []string `json:"emails"`
	Phones []string `json:"telefones"`
}

type Address struct {
	Street     string `json:"logradouro"`
	Number     string `json:"numero"`
	Complement string `json:"complemento"`
	District   string `json:"bairro"`
	City       string `json:"cidade"`
	UF         string `json:"uf"`
	ZipCode    string `json:"cep"`
}

type Score struct {
	CSB8     string `json:"score_csb8,omitempty"`
	CSB8Band string `json:"faixa_csb8,omitempty"`
	CSBA     string `json:"score_csba,omitempty"`
	CSBABand string `json:"faixa_csba,omitempty"`
}

// IncomeTax is the latest income-tax refund status row.
type IncomeTax struct {
	DocNumber     string `json:"doc_number"`
	Bank          string `json:"instituicao"`
	Branch        string `json:"agencia"`
	Batch         string `json:"lote"`
	ReferenceYear string `json:"ano_referencia"`
	BatchDate     string `json:"data_lote"`
	Status        string `json:"situacao_rf"`
	ConsultedAt   string `json:"data_consulta"`
}

type PurchasingPower struct {
	Level  string `json:"poder_aquisitivo,omitempty"`
	Income string `json:"renda,omitempty"`
	Band   string `json:"faixa,omitempty"`
	Code   string `json:"codigo,omitempty"`
}

type Financial struct {
	Score           *Score           `json:"score"`
	IncomeTax       *IncomeTax       `json:"irpf"`
	PurchasingPower *PurchasingPower `json:"poder_aquisitivo"`
}

type Profession struct {
	ID             string `json:"id_profissao"`
	Code           string `json:"codigo"`
	Description    string `json:"descricao"`
	RegistrationID string `json:"cadastro_id"`
	IncludedAt     string `json:"data_inclusao"`
	Increment      string `json:"incremento"`
	UpdatedAt      string `json:"atualizacao"`
	CBOMissing     string `json:"cbo_inexistente"`
	SameProfession string `json:"profissao_igual"`
}

type Professional struct {
	PIS        string      `json:"pis,omitempty"`
	Profession *Profession `json:"profissao"`
}

// Education is the latest university enrollment.
type Education struct {
	Name           string `json:"nome"`
	EntranceYear   string `json:"ano_vestibular"`
	Institution    string `json:"faculdade"`
	UF             string `json:"uf"`
	Campus         string `json:"campus"`
	Course         string `json:"curso"`
	Period         string `json:"periodo"`
	Enrollment     string `json:"inscricao"`
	BirthDate      string `json:"data_nascimento"`
	Quota          string `json:"cota"`
	GraduationYear string `json:"ano_conclusao"`
	IncludedAt     string `json:"data_inclusao"`
	RegistrationID string `json:"cadastro_id"`
}

type Electoral struct {
	VoterID string `json:"titulo"`
	Zone    string `json:"zona"`
	Section string `json:"secao"`
}

type Relative struct {
	Kinship string `json:"grau"`
	CPF     string `json:"cpf"`
	Name    string `json:"nome"`
}

// CompositeRecord is the merged view of one person across all stores.
// Unavailable names the branches whose store failed; their fields are absent.
type CompositeRecord struct {
	Basic        Basic        `json:"dados_basicos"`
	Contacts     Contacts     `json:"contatos"`
	Addresses    []Address    `json:"enderecos"`
	Financial    Financial    `json:"financeiro"`
	Professional Professional `json:"profissional"`
	Education    *Education   `json:"educacao"`
	Electoral    *Electoral   `json:"eleitoral"`
	Relatives    []Relative   `json:"parentes"`
	Unavailable  []string     `json:"indisponiveis,omitempty"`
}

// Complete reports whether every branch answered.
func (r *CompositeRecord) Complete() bool {
	return len(r.Unavailable) == 0
}
