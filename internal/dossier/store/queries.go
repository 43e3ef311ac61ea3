package store

const queryBasic = `
SELECT NOME, CPF, NASC, NOME_MAE, NOME_PAI, SEXO, CONTATOS_ID
FROM SRS_CONTATOS
WHERE CPF = ?
ORDER BY rowid
LIMIT 1`

const queryEmails = `
SELECT DISTINCT EMAIL
FROM SRS_EMAIL
WHERE CONTATOS_ID = ? AND EMAIL IS NOT NULL AND EMAIL <> ''`

const queryPhones = `
SELECT DISTINCT DDD || TELEFONE
FROM SRS_HISTORICO_TELEFONES
WHERE CONTATOS_ID = ?`

const queryAddresses = `
SELECT LOGR_TIPO, LOGR_NOME, LOGR_NUMERO, LOGR_COMPLEMENTO, BAIRRO, CIDADE, UF, CEP
FROM SRS_TB_ENDERECOS
WHERE CONTATOS_ID = ?
ORDER BY rowid`

const queryScore = `
SELECT CSB8, CSB8_FAIXA, CSBA, CSBA_FAIXA
FROM SRS_TB_MODELOS_ANALYTICS_SCORE
WHERE CONTATOS_ID = ?
ORDER BY rowid DESC
LIMIT 1`

// History tables return every row; the newest is chosen by models.Latest.

const queryIncomeTax = `
SELECT DocNumber, Instituicao_Bancaria, Cod_Agencia, Lote, Ano_Referencia,
       Dt_Lote, Sit_Receita_Federal, Dt_Consulta, rowid
FROM SRS_TB_IRPF
WHERE CONTATOS_ID = ?
ORDER BY Dt_Consulta, rowid`

const queryPIS = `
SELECT PIS, DT_INCLUSAO, rowid
FROM SRS_TB_PIS
WHERE CONTATOS_ID = ?
ORDER BY DT_INCLUSAO, rowid`

const queryProfession = `
SELECT ID_PROFISSAO, COD_PROFISSAO, DESCRICAO_PROFISSAO, CADASTRO_ID, DT_INCLUSAO,
       INCREMENTO, ATUALIZACAO, CBO_INEXISTENTE, PROFISSAO_IGUAL, rowid
FROM SRS_TB_PROFISSAO
WHERE CONTATOS_ID = ?
ORDER BY DT_INCLUSAO, rowid`

const queryEducation = `
SELECT NOME, ANO_VESTIBULAR, FACULDADE, UF, CAMPUS, CURSO, PERIODO_CURSADO,
       INSCRICAO_VESTIBULAR, DATA_NASCIMENTO, COTA, ANO_CONCULSAO, DT_INCLUSAO,
       CADASTRO_ID, rowid
FROM SRS_TB_UNIVERSITARIOS
WHERE CONTATOS_ID = ?
ORDER BY DT_INCLUSAO, rowid`

const queryElectoral = `
SELECT TITULO_ELEITOR, ZONA, SECAO
FROM SRS_TB_TSE
WHERE CONTATOS_ID = ?
ORDER BY rowid DESC
LIMIT 1`

const queryRelatives = `
SELECT VINCULO, CPF_VINCULO, NOME_VINCULO
FROM SRS_MAPA_PARENTES_ANALYTICS
WHERE CPF_Completo = ?
ORDER BY rowid`

const queryPurchasingPower = `
SELECT PODER_AQUISITIVO, RENDA_PODER_AQUISITIVO, FX_PODER_AQUISITIVO, COD_PODER_AQUISITIVO
FROM SRS_TB_PODER_AQUISITIVO
WHERE CONTATOS_ID = ?
ORDER BY rowid DESC
LIMIT 1`
